package repositories

import (
	"ccip-relay.backend/internal/domain/entities"
)

// ChainRegistry resolves chain ids to their static descriptors. Lookups never
// touch the network.
type ChainRegistry interface {
	Describe(id string) (*entities.ChainDescriptor, error)
	FamilyOf(id string) (entities.ChainFamily, error)
	List() []*entities.ChainDescriptor
}
