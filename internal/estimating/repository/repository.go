package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// wrapNotFound maps gorm's sentinel onto the package error so services can
// test with errors.Is without importing gorm.
func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Repositories bundles every repository over one gorm handle.
type Repositories struct {
	User             *UserRepository
	Part             *PartRepository
	PartCategory     *PartCategoryRepository
	StandardAssembly *StandardAssemblyRepository
	AssemblyCategory *AssemblyCategoryRepository
	Project          *ProjectRepository
	Estimate         *EstimateRepository
	Assembly         *AssemblyRepository
	Motor            *MotorRepository
	LaborRate        *LaborRateRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:             NewUserRepository(db),
		Part:             NewPartRepository(db),
		PartCategory:     NewPartCategoryRepository(db),
		StandardAssembly: NewStandardAssemblyRepository(db),
		AssemblyCategory: NewAssemblyCategoryRepository(db),
		Project:          NewProjectRepository(db),
		Estimate:         NewEstimateRepository(db),
		Assembly:         NewAssemblyRepository(db),
		Motor:            NewMotorRepository(db),
		LaborRate:        NewLaborRateRepository(db),
	}
}
