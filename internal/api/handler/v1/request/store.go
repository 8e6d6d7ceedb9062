package request

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type CreateProductRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Price       int    `json:"price"`
}

func (req *CreateProductRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&req.Type, validation.Length(0, 128)),
		validation.Field(&req.Price, validation.Required, validation.Min(1)),
	)
}

type CreateVarietyRequest struct {
	Size   string   `json:"size"`
	Color  string   `json:"color"`
	Images []string `json:"images"`
}

func (req *CreateVarietyRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Size, validation.Length(0, 16)),
		validation.Field(&req.Color, validation.Length(0, 32)),
	)
	if err != nil {
		return err
	}

	for i, id := range req.Images {
		if err = is.UUID.Validate(id); err != nil {
			return validation.Errors{"images": fmt.Errorf("%d: %w", i, err)}
		}
	}
	return nil
}

type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (req *QuantityRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Quantity, validation.Required, validation.Min(1)),
	)
}

type StockChangeStatusRequest struct {
	Status string `json:"status"`
}

func (req *StockChangeStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required,
			validation.In("pending", "ready_for_pickup", "carried_out", "rejected")),
	)
}
