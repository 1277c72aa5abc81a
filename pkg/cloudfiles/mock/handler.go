package mock

import (
	"io"
	"net/http"
	"strings"

	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles"
)

// Account is the account segment of the storage and CDN URLs handed out by
// the auth endpoint.
const Account = "MockAccount"

// Routes served by Handler.
const (
	AuthPath    = "/auth/v1.0"
	StoragePath = "/v1/" + Account
	CDNPath     = "/cdn/v1/" + Account
)

// Handler serves the account over HTTP: the v1.0 auth handshake at AuthPath,
// the storage API under StoragePath and the CDN management API under
// CDNPath.
func (m *Mock) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(AuthPath, m.handleAuth)
	mux.Handle(StoragePath, m.endpointHandler(EndpointStorage, StoragePath))
	mux.Handle(StoragePath+"/", m.endpointHandler(EndpointStorage, StoragePath))
	mux.Handle(CDNPath, m.endpointHandler(EndpointCDN, CDNPath))
	mux.Handle(CDNPath+"/", m.endpointHandler(EndpointCDN, CDNPath))
	return mux
}

func (m *Mock) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := r.Header.Get(cloudfiles.HeaderAuthUser)
	key := r.Header.Get(cloudfiles.HeaderAuthKey)

	m.mu.RLock()
	wantUser, wantKey, token := m.username, m.apiKey, m.token
	m.mu.RUnlock()

	if user == "" || key == "" || (wantUser != "" && (user != wantUser || key != wantKey)) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	base := baseURL(r)
	w.Header().Set(cloudfiles.HeaderAuthToken, token)
	w.Header().Set(cloudfiles.HeaderStorageURL, base+StoragePath)
	w.Header().Set(cloudfiles.HeaderCDNManagementURL, base+CDNPath)
	w.WriteHeader(http.StatusNoContent)
}

func (m *Mock) endpointHandler(ep, prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(cloudfiles.HeaderAuthToken) != m.Token() {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		path := strings.TrimPrefix(r.URL.EscapedPath(), prefix)
		rep := m.serve(ep, r.Method, strings.TrimLeft(path, "/"), r.URL.Query(), r.Header, body)

		for k, values := range rep.header {
			for _, v := range values {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(rep.status)
		if r.Method != http.MethodHead && len(rep.body) > 0 {
			_, _ = w.Write(rep.body)
		}
	})
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
