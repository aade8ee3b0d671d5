package rbac

// Resolver resolves caller identities against the configured membership sets.
// Lookup is case-sensitive exact match. An identity present in more than one
// set resolves to the highest tier: admins are checked first, then writers,
// then readers.
type Resolver struct {
	admins  map[string]struct{}
	writers map[string]struct{}
	readers map[string]struct{}
}

// NewResolver builds a Resolver from the three membership lists.
// Empty entries are skipped so trailing commas in env lists are harmless.
func NewResolver(admins, writers, readers []string) *Resolver {
	return &Resolver{
		admins:  toSet(admins),
		writers: toSet(writers),
		readers: toSet(readers),
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// Resolve returns the role for an identity. Empty or unrecognized
// identities resolve to RoleUnauthorized.
func (r *Resolver) Resolve(identity string) Role {
	if identity == "" {
		return RoleUnauthorized
	}
	if _, ok := r.admins[identity]; ok {
		return RoleAdmin
	}
	if _, ok := r.writers[identity]; ok {
		return RoleWriter
	}
	if _, ok := r.readers[identity]; ok {
		return RoleReader
	}
	return RoleUnauthorized
}
