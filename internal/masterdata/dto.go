package masterdata

import "errors"

type CreateProjectDTO struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (dto CreateProjectDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.Code == "" {
		return errors.New("code is required")
	}
	return nil
}

type CreateSiteDTO struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (dto CreateSiteDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.Code == "" {
		return errors.New("code is required")
	}
	return nil
}
