package request

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/mcoot/scoresnap/internal/api/apierr"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// RegisterRequest is the request body for registering an account
type RegisterRequest struct {
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateBowlerRequest is the request body for creating a bowler
type CreateBowlerRequest struct {
	Name string `json:"name" validate:"required"`
}

// AddAliasRequest is the request body for recording an alias
// Source defaults to manual and confidence to 1
type AddAliasRequest struct {
	Alias      string   `json:"alias" validate:"required"`
	Source     string   `json:"source" validate:"omitempty,oneof=manual auto_vision"`
	Confidence *float64 `json:"confidence_score" validate:"omitempty,gte=0,lte=1"`
}

// ResolveRequest is the request body for resolving a parsed name
type ResolveRequest struct {
	Name string `json:"name" validate:"required"`
}

// Mapping assigns a scoreboard name to a bowler
// An empty BowlerID asks for a new bowler to be created
type Mapping struct {
	BowlerID    string `json:"bowler_id"`
	RecordAlias bool   `json:"record_alias"`
}

// PersistRequest is the request body for persisting an upload
type PersistRequest struct {
	Mappings map[string]Mapping `json:"mappings"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Decode reads a JSON body into v and validates it. An empty body decodes
// to the zero value.
func Decode(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apierr.NewInvalidRequestError(fmt.Sprintf("invalid request body: %v", err))
	}
	return Validate(v)
}

// Validate checks validate tags on a request struct
func Validate(v any) error {
	return validatorInstance().Struct(v)
}
