package bouncer

// DefaultOwnerField is the field consulted for resource types without an
// explicit mapping.
const DefaultOwnerField = "user_id"

// Ownership maps resource types to the field holding their owner's id.
// The field "id" means the resource's own ID, which is how a user owns
// itself.
type Ownership struct {
	defaultField string
	fields       map[string]string
}

// NewOwnership returns a registry falling back to defaultField, or
// DefaultOwnerField when it is empty.
func NewOwnership(defaultField string) *Ownership {
	if defaultField == "" {
		defaultField = DefaultOwnerField
	}
	return &Ownership{defaultField: defaultField, fields: make(map[string]string)}
}

// OwnedVia registers the owner field of resourceType.
func (o *Ownership) OwnedVia(resourceType, field string) *Ownership {
	o.fields[resourceType] = field
	return o
}

// Field returns the owner field of resourceType.
func (o *Ownership) Field(resourceType string) string {
	if f, ok := o.fields[resourceType]; ok {
		return f
	}
	return o.defaultField
}

// Owner returns the owner id of res. Only instances have owners.
func (o *Ownership) Owner(res *Resource) (string, bool) {
	if res == nil || res.Type == "" || res.ID == "" {
		return "", false
	}
	field := o.Field(res.Type)
	if field == "id" {
		return res.ID, true
	}
	owner, ok := res.Fields[field]
	if !ok || owner == "" {
		return "", false
	}
	return owner, true
}

// Owns reports whether principalID owns res.
func (o *Ownership) Owns(principalID string, res *Resource) bool {
	owner, ok := o.Owner(res)
	return ok && owner == principalID
}
