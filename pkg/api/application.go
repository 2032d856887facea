package api

import "errors"

type ApplicationService interface {
	Delete(int) error
	Get(int) (*ApplicationDetail, error)
	List() ([]Application, error)
	New(NewApplicationRequest) (*Application, error)
	Update(int, UpdateApplicationRequest) error
}

type ApplicationRepository interface {
	CreateApplication(NewApplicationRequest) (int, error)
	DeleteApplication(int) error
	GetApplication(int) (*Application, error)
	ListApplicationDatabases(int) ([]Database, error)
	ListApplicationInstances(int) ([]Instance, error)
	ListApplications() ([]Application, error)
	UpdateApplication(int, UpdateApplicationRequest) error
}

type applicationService struct {
	storage ApplicationRepository
}

func NewApplicationService(repo ApplicationRepository) ApplicationService {
	return &applicationService{
		storage: repo,
	}
}

func (s *applicationService) Delete(id int) error {
	return s.storage.DeleteApplication(id)
}

// Get returns the application with the active databases and instances tagged
// with it.
func (s *applicationService) Get(id int) (*ApplicationDetail, error) {
	application, err := s.storage.GetApplication(id)
	if err != nil {
		return nil, err
	}
	if application == nil {
		return nil, nil
	}

	databases, err := s.storage.ListApplicationDatabases(id)
	if err != nil {
		return nil, err
	}

	instances, err := s.storage.ListApplicationInstances(id)
	if err != nil {
		return nil, err
	}

	return &ApplicationDetail{
		Application: *application,
		Databases:   databases,
		Instances:   instances,
	}, nil
}

func (s *applicationService) List() ([]Application, error) {
	return s.storage.ListApplications()
}

func (s *applicationService) New(application NewApplicationRequest) (*Application, error) {
	if application.Name == "" {
		return nil, errors.New("application name is required")
	}

	id, err := s.storage.CreateApplication(application)
	if err != nil {
		return nil, err
	}

	return s.storage.GetApplication(id)
}

func (s *applicationService) Update(id int, application UpdateApplicationRequest) error {
	if application.Name == "" {
		return errors.New("application name is required")
	}
	return s.storage.UpdateApplication(id, application)
}
