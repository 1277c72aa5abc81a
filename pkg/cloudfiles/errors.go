package cloudfiles

import (
	"errors"
	"fmt"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/httpx"
)

// HTTPError is returned by transports for any response with a status of 400
// or above. Transports implemented outside this module should return it too,
// so status mapping keeps working.
type HTTPError = httpx.HTTPError

// Kind classifies failures reported by Container and Client operations.
type Kind int

const (
	KindUnknown Kind = iota
	KindContainerNotFound
	KindStorageItemNotFound
	KindPublicContainerNotFound
	KindAuthenticationFailed
	KindAccessDenied
	KindPreconditionFailed
	KindMetaKeyTooLong
	KindMetaValueTooLong
	KindInvalidArgument
)

var kindNames = map[Kind]string{
	KindUnknown:                 "unknown",
	KindContainerNotFound:       "container not found",
	KindStorageItemNotFound:     "storage item not found",
	KindPublicContainerNotFound: "public container not found",
	KindAuthenticationFailed:    "authentication failed",
	KindAccessDenied:            "access denied",
	KindPreconditionFailed:      "precondition failed",
	KindMetaKeyTooLong:          "meta key too long",
	KindMetaValueTooLong:        "meta value too long",
	KindInvalidArgument:         "invalid argument",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels usable with errors.Is.
var (
	ErrContainerNotFound       = errors.New("cloudfiles: container not found")
	ErrStorageItemNotFound     = errors.New("cloudfiles: storage item not found")
	ErrPublicContainerNotFound = errors.New("cloudfiles: public container not found")
	ErrAuthenticationFailed    = errors.New("cloudfiles: authentication failed")
	ErrAccessDenied            = errors.New("cloudfiles: access denied")
	ErrPreconditionFailed      = errors.New("cloudfiles: precondition failed")
	ErrMetaKeyTooLong          = errors.New("cloudfiles: meta key too long")
	ErrMetaValueTooLong        = errors.New("cloudfiles: meta value too long")
	ErrInvalidArgument         = errors.New("cloudfiles: invalid argument")
)

var kindSentinels = map[Kind]error{
	KindContainerNotFound:       ErrContainerNotFound,
	KindStorageItemNotFound:     ErrStorageItemNotFound,
	KindPublicContainerNotFound: ErrPublicContainerNotFound,
	KindAuthenticationFailed:    ErrAuthenticationFailed,
	KindAccessDenied:            ErrAccessDenied,
	KindPreconditionFailed:      ErrPreconditionFailed,
	KindMetaKeyTooLong:          ErrMetaKeyTooLong,
	KindMetaValueTooLong:        ErrMetaValueTooLong,
	KindInvalidArgument:         ErrInvalidArgument,
}

// Error is a classified failure. Err holds the transport error when the kind
// was derived from an HTTP status.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Path != "" {
		msg = fmt.Sprintf("cloudfiles: %s %s: %s", e.Op, e.Path, msg)
	} else {
		msg = fmt.Sprintf("cloudfiles: %s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var cfErr *Error
	if errors.As(err, &cfErr) {
		return cfErr.Kind
	}
	return KindUnknown
}

// StatusCode returns the HTTP status wrapped by err, if any.
func StatusCode(err error) (int, bool) {
	return httpx.StatusCode(err)
}

type operation string

const (
	opListObjects     operation = "list objects"
	opDeleteObject    operation = "delete object"
	opPublish         operation = "publish to cdn"
	opUnpublish       operation = "unpublish from cdn"
	opSetMetadata     operation = "set object metadata"
	opSetCDNDetails   operation = "set cdn details"
	opMakePath        operation = "ensure directory path"
	opListSerialized  operation = "list objects serialized"
	opHeadContainer   operation = "head container"
	opHeadCDN         operation = "head cdn container"
	opPutObject       operation = "put object"
	opGetObject       operation = "get object"
	opHeadObject      operation = "head object"
	opCreateContainer operation = "create container"
	opListContainers  operation = "list containers"
	opAuthenticate    operation = "authenticate"
	opContainer       operation = "open container"
)

// statusKinds maps, per operation, the HTTP statuses that carry a meaning of
// their own. Statuses absent from the table are passed through unchanged.
var statusKinds = map[operation]map[int]Kind{
	opListObjects:    {404: KindContainerNotFound},
	opDeleteObject:   {404: KindStorageItemNotFound},
	opPublish:        {401: KindAuthenticationFailed},
	opUnpublish:      {401: KindAccessDenied, 404: KindPublicContainerNotFound},
	opSetMetadata:    {404: KindStorageItemNotFound},
	opSetCDNDetails:  {401: KindAccessDenied, 404: KindPublicContainerNotFound},
	opMakePath:       {400: KindContainerNotFound, 404: KindContainerNotFound, 412: KindPreconditionFailed},
	opListSerialized: {404: KindContainerNotFound},
	opHeadContainer:  {404: KindContainerNotFound},
	opHeadCDN:        {404: KindPublicContainerNotFound},
	opPutObject:      {400: KindContainerNotFound, 404: KindContainerNotFound, 412: KindPreconditionFailed},
	opGetObject:      {404: KindStorageItemNotFound},
	opHeadObject:     {404: KindStorageItemNotFound},
	opListContainers: {401: KindAuthenticationFailed},
	opAuthenticate:   {401: KindAuthenticationFailed, 403: KindAuthenticationFailed},
}

// classify is the single place where transport errors become typed errors.
func classify(op operation, path string, err error) error {
	if err == nil {
		return nil
	}
	code, ok := httpx.StatusCode(err)
	if !ok {
		return err
	}
	kind, ok := statusKinds[op][code]
	if !ok {
		return err
	}
	return &Error{Kind: kind, Op: string(op), Path: path, Err: err}
}

func invalidArgument(op operation, path, format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Op: string(op), Path: path, Msg: fmt.Sprintf(format, args...)}
}
