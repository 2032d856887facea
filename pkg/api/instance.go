package api

import (
	"errors"
	"fmt"
	"log"
)

type InstanceService interface {
	Disable(int, DisableInstanceRequest) error
	Get(int) (*Instance, error)
	List() ([]Instance, error)
	ListDisabled() ([]Instance, error)
	New(NewInstanceRequest) (*Instance, error)
	Probe(int) (*ProbeResult, error)
	Reactivate(int) error
	Refresh(int) (*InstanceSnapshot, error)
	SetApplications(int, []int) error
	Tree() ([]Tree, error)
	Update(int, UpdateInstanceRequest) error
}

type InstanceRepository interface {
	CreateInstance(NewInstanceRequest) (int, error)
	DisableInstance(int, DisableInstanceRequest) error
	GetInstance(int) (*Instance, error)
	GetDatabaseByName(int, string) (*Database, error)
	InstanceTree() ([]Tree, error)
	ListDisabledInstances() ([]Instance, error)
	ListInstances() ([]Instance, error)
	ReactivateInstance(int) error
	SaveInstanceSnapshot(int, InstanceSnapshot) error
	SaveDatabaseSnapshot(int, DatabaseSnapshot) error
	SetInstanceApplications(int, []int) error
	UpdateInstance(int, UpdateInstanceRequest) error
	UpdateInstanceStatus(int, string, *string) error
}

type instanceService struct {
	storage   InstanceRepository
	harvester Harvester
	vault     *Vault
}

func NewInstanceService(repo InstanceRepository, harvester Harvester, vault *Vault) InstanceService {
	return &instanceService{
		storage:   repo,
		harvester: harvester,
		vault:     vault,
	}
}

// Disable takes an instance out of rotation without touching anything
// harvested from it. Disabled instances drop out of listings, probes and
// scans until reactivated.
func (s *instanceService) Disable(id int, request DisableInstanceRequest) error {
	if request.Reason == "" {
		return errors.New("reason is required")
	}

	valid := false
	for _, t := range DisableTypes {
		if request.Type == t {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("type must be one of %v", DisableTypes)
	}

	return s.storage.DisableInstance(id, request)
}

func (s *instanceService) Get(id int) (*Instance, error) {
	return s.storage.GetInstance(id)
}

func (s *instanceService) List() ([]Instance, error) {
	return s.storage.ListInstances()
}

func (s *instanceService) ListDisabled() ([]Instance, error) {
	return s.storage.ListDisabledInstances()
}

func (s *instanceService) New(instance NewInstanceRequest) (*Instance, error) {
	if err := s.newInstanceRequestValidation(instance); err != nil {
		return nil, err
	}

	token, err := s.vault.Encrypt(instance.AuthPassword)
	if err != nil {
		return nil, err
	}
	instance.AuthPassword = token

	id, err := s.storage.CreateInstance(instance)
	if err != nil {
		return nil, err
	}

	return s.Get(id)
}

// Probe runs a connection round-trip and records the outcome on the stored
// instance.
func (s *instanceService) Probe(id int) (*ProbeResult, error) {
	instance, err := s.storage.GetInstance(id)
	if err != nil {
		return nil, err
	}
	if instance == nil || !instance.IsActive {
		return nil, nil
	}

	result := s.harvester.Probe(*instance)
	if err := s.storage.UpdateInstanceStatus(id, result.Status, result.Error); err != nil {
		return nil, err
	}

	return &result, nil
}

// Refresh harvests the full instance snapshot, reconciles it, then walks the
// discovered databases one at a time collecting their object inventories. A
// database whose harvest degrades only loses its own objects; persistence
// errors abort the refresh.
func (s *instanceService) Refresh(id int) (*InstanceSnapshot, error) {
	instance, err := s.storage.GetInstance(id)
	if err != nil {
		return nil, err
	}
	if instance == nil || !instance.IsActive {
		return nil, nil
	}

	snapshot := s.harvester.HarvestInstance(*instance)
	if err := s.storage.SaveInstanceSnapshot(id, snapshot); err != nil {
		return nil, err
	}

	for _, database := range snapshot.Databases {
		record, err := s.storage.GetDatabaseByName(id, database.Name)
		if err != nil {
			return nil, err
		}
		if record == nil {
			continue
		}

		objects := s.harvester.HarvestDatabase(*instance, database.Name)
		if objects.Error != nil {
			log.Printf("refresh %s: collecting objects for %s: %s", instance.Name, database.Name, *objects.Error)
		}
		if err := s.storage.SaveDatabaseSnapshot(record.Id, objects); err != nil {
			return nil, err
		}
	}

	return &snapshot, nil
}

func (s *instanceService) Reactivate(id int) error {
	return s.storage.ReactivateInstance(id)
}

func (s *instanceService) SetApplications(id int, applicationIds []int) error {
	return s.storage.SetInstanceApplications(id, applicationIds)
}

func (s *instanceService) Tree() ([]Tree, error) {
	return s.storage.InstanceTree()
}

func (s *instanceService) Update(id int, instance UpdateInstanceRequest) error {
	if err := s.updateInstanceRequestValidation(instance); err != nil {
		return err
	}

	if id == 0 {
		return errors.New("id cannot be zero")
	}

	if instance.AuthPassword != "" {
		token, err := s.vault.Encrypt(instance.AuthPassword)
		if err != nil {
			return err
		}
		instance.AuthPassword = token
	}

	return s.storage.UpdateInstance(id, instance)
}

func (s *instanceService) newInstanceRequestValidation(instance NewInstanceRequest) error {
	if instance.Name == "" {
		return errors.New("name is required")
	}

	if instance.Host == "" {
		return errors.New("host is required")
	}

	if instance.Port == 0 {
		return errors.New("port is required")
	}

	return validEnvironment(instance.Environment)
}

func (s *instanceService) updateInstanceRequestValidation(instance UpdateInstanceRequest) error {
	return s.newInstanceRequestValidation(NewInstanceRequest{
		Name:        instance.Name,
		Environment: instance.Environment,
		Host:        instance.Host,
		Port:        instance.Port,
	})
}

func validEnvironment(environment string) error {
	for _, e := range Environments {
		if environment == e {
			return nil
		}
	}
	return fmt.Errorf("environment must be one of %v", Environments)
}
