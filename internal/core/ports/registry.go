package ports

import "github.com/quacc/access-point-api/internal/core/domain"

// AccessPointRegistry is the set of access point operations the report
// pipeline and the HTTP layer depend on.
type AccessPointRegistry interface {
	Create(loc domain.Location, opts domain.AccessPointOptions) domain.AccessPoint
	Get(id domain.AccessPointID) (domain.AccessPoint, error)
	List() []domain.AccessPoint
	SetStatus(id domain.AccessPointID, status domain.AccessPointStatus) error
}

// UserRegistry is the set of user operations the report pipeline and the
// HTTP layer depend on.
type UserRegistry interface {
	Create(username, password string) (domain.User, error)
	Get(username string) (domain.User, error)
	Subscribe(username string, id domain.AccessPointID) error
	SubscribersOf(id domain.AccessPointID) []string
}
