package service

import (
	"errors"
	"time"

	"github.com/apopovich85/Est/internal/estimating/repository"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound re-exports the repository sentinel so handlers depend on one
	// package only.
	ErrNotFound = repository.ErrNotFound

	// ErrVersionNotFound means a version family exists but has no row for the
	// requested version string.
	ErrVersionNotFound = errors.New("version not found in family")

	// ErrConflict means the operation would violate a uniqueness or
	// referential rule (duplicate estimate number, part still referenced).
	ErrConflict = errors.New("conflict")

	// ErrValidation means the input failed a domain rule beyond binding.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials covers unknown usernames, wrong passwords and
	// deactivated accounts so login failures are indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Services bundles the domain services behind one constructor.
type Services struct {
	User             *UserService
	Part             *PartService
	StandardAssembly *StandardAssemblyService
	Project          *ProjectService
	Estimate         *EstimateService
	Motor            *MotorService
	LaborRate        *LaborRateService
}

func NewServices(repos *repository.Repositories, rdb *redis.Client, jwtSecret string, tokenTTL time.Duration) *Services {
	laborRate := NewLaborRateService(repos.LaborRate, rdb)
	return &Services{
		User:             NewUserService(repos.User, jwtSecret, tokenTTL),
		Part:             NewPartService(repos.Part, repos.PartCategory),
		StandardAssembly: NewStandardAssemblyService(repos.StandardAssembly, repos.AssemblyCategory, repos.Assembly, repos.Part),
		Project:          NewProjectService(repos.Project, repos.Estimate, repos.Motor),
		Estimate:         NewEstimateService(repos.Estimate, repos.Project, repos.Assembly, repos.Part, laborRate),
		Motor:            NewMotorService(repos.Motor, repos.Project),
		LaborRate:        laborRate,
	}
}
