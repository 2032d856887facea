package api

import "errors"

// Search hit types carry just enough context to land the user somewhere
// useful: every hit below the instance level names its database and instance.

type InstanceHit struct {
	Id          int    `json:"id"`
	Name        string `json:"name"`
	Environment string `json:"environment"`
	LastStatus  string `json:"last_status"`
	Description string `json:"description"`
}

type DatabaseHit struct {
	Id           int    `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	InstanceName string `json:"instance_name"`
	Environment  string `json:"environment"`
}

type TableHit struct {
	Id           int    `json:"id"`
	Schema       string `json:"schema_name"`
	Name         string `json:"table_name"`
	RowCount     *int64 `json:"row_count"`
	DatabaseId   int    `json:"database_id"`
	DatabaseName string `json:"database_name"`
	InstanceName string `json:"instance_name"`
	Environment  string `json:"environment"`
}

type ProcedureHit struct {
	Id           int    `json:"id"`
	Schema       string `json:"schema_name"`
	Name         string `json:"procedure_name"`
	DatabaseId   int    `json:"database_id"`
	DatabaseName string `json:"database_name"`
	InstanceName string `json:"instance_name"`
	Environment  string `json:"environment"`
}

type SearchResults struct {
	Instances  []InstanceHit  `json:"instances"`
	Databases  []DatabaseHit  `json:"databases"`
	Tables     []TableHit     `json:"tables"`
	Procedures []ProcedureHit `json:"procedures"`
}

type SearchService interface {
	Search(string) (*SearchResults, error)
}

type SearchRepository interface {
	SearchInventory(string) (*SearchResults, error)
}

type searchService struct {
	storage SearchRepository
}

func NewSearchService(repo SearchRepository) SearchService {
	return &searchService{
		storage: repo,
	}
}

func (s *searchService) Search(term string) (*SearchResults, error) {
	if term == "" {
		return nil, errors.New("search query is required")
	}
	return s.storage.SearchInventory(term)
}
