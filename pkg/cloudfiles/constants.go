package cloudfiles

// Protocol headers.
const (
	HeaderAuthToken          = "X-Auth-Token"
	HeaderAuthUser           = "X-Auth-User"
	HeaderAuthKey            = "X-Auth-Key"
	HeaderStorageURL         = "X-Storage-Url"
	HeaderCDNManagementURL   = "X-CDN-Management-Url"
	HeaderCDNTTL             = "X-TTL"
	HeaderCDNURI             = "X-CDN-URI"
	HeaderCDNEnabled         = "X-CDN-Enabled"
	HeaderLogRetention       = "X-Log-Retention"
	HeaderUserAgentACL       = "X-User-Agent-ACL"
	HeaderReferrerACL        = "X-Referrer-ACL"
	HeaderObjectMetaPrefix   = "X-Object-Meta-"
	HeaderContainerObjects   = "X-Container-Object-Count"
	HeaderContainerBytesUsed = "X-Container-Bytes-Used"
	HeaderContainerMeta      = "X-Container-Meta-"
	HeaderETag               = "ETag"
	HeaderIfNoneMatch        = "If-None-Match"
)

// Limits enforced by the service.
const (
	MaxMetaKeyLength       = 128
	MaxMetaValueLength     = 256
	MaxContainerNameLength = 256
	MaxObjectNameLength    = 1024
)

// NoTTL leaves the CDN TTL untouched when publishing or updating a container.
const NoTTL = -1

// DirectoryContentType marks zero-byte pseudo-directory objects.
const DirectoryContentType = "application/directory"

// Format selects the serialization of a container listing.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)
