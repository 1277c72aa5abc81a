// Package cloudfiles is a client for the Rackspace Cloud Files object storage
// API and its CDN management endpoint.
//
// The Container type wraps a single container and exposes listing, object
// metadata, deletion, pseudo-directory creation and CDN publication. Every
// operation builds an explicit Request and submits it through a Transport;
// HTTP status codes are mapped to a closed set of error kinds (see Kind), and
// anything without a mapping is returned unchanged.
//
// New builds a Client backed by HTTP and Cloud Files v1.0 authentication.
// NewWithTransport accepts any Transport, such as the in-memory account in
// the mock subpackage.
package cloudfiles
