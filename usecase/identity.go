package usecase

// Identity sources, strongest first. Only a session-backed identity may
// touch credentials or mint tokens; the weaker sources exist so content
// operations keep working for clients that have not adopted sessions yet.
const (
	SourceSession  = "session"
	SourceResource = "resource"
	SourceClient   = "client"
)

// RequestIdentity carries the identity hints extracted from a request.
type RequestIdentity struct {
	SessionUserID   string // set by the auth middleware from a valid token
	ClientCreatorID string // client-supplied marker, never trusted for writes
}

// IdentityResolution is the outcome of walking the identity chain.
type IdentityResolution struct {
	CreatorID  string
	Source     string
	Privileged bool
}

// ResolveCreator walks session -> owning resource -> client marker.
// resourceOwner is the creator id recorded on the resource under operation,
// empty when the operation has no resource yet.
func ResolveCreator(identity RequestIdentity, resourceOwner string) (IdentityResolution, error) {
	if identity.SessionUserID != "" {
		return IdentityResolution{CreatorID: identity.SessionUserID, Source: SourceSession, Privileged: true}, nil
	}
	if resourceOwner != "" {
		return IdentityResolution{CreatorID: resourceOwner, Source: SourceResource}, nil
	}
	if identity.ClientCreatorID != "" {
		return IdentityResolution{CreatorID: identity.ClientCreatorID, Source: SourceClient}, nil
	}
	return IdentityResolution{}, ErrUnauthorized
}
