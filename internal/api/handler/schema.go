package handler

import "github.com/quacc/access-point-api/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Access points ---

type createAccessPointRequest struct {
	Lat    *float64 `json:"lat"    validate:"required,gte=-90,lte=90"`
	Long   *float64 `json:"long"   validate:"required,gte=-180,lte=180"`
	Name   string   `json:"name"   validate:"max=200"`
	Status string   `json:"status"`
	Kind   *string  `json:"kind"`
}

type createAccessPointResponse struct {
	ID domain.AccessPointID `json:"id"`
}

type reportRequest struct {
	Status      string `json:"status"`
	Description string `json:"description" validate:"max=1000"`
}

type batchReportRequest struct {
	ID          *uint64 `json:"id"          validate:"required"`
	Status      string  `json:"status"`
	Description string  `json:"description" validate:"max=1000"`
}

type reportResponse struct {
	AccessPoint domain.AccessPoint `json:"access_point"`
	Subscribers int                `json:"subscribers"`
	Delivered   int                `json:"delivered"`
	Failed      int                `json:"failed"`
}

type acceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// --- Users ---

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

type subscribeRequest struct {
	Username      string  `json:"username"        validate:"required"`
	AccessPointID *uint64 `json:"access_point_id" validate:"required"`
}

type userResponse struct {
	Username     string                 `json:"username"`
	AccessPoints []domain.AccessPointID `json:"access_points"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Notifications ---

type pushKeysRequest struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth"   validate:"required"`
}

type pushSubscriptionRequest struct {
	Endpoint string          `json:"endpoint" validate:"required,url"`
	Keys     pushKeysRequest `json:"keys"     validate:"required"`
}

type registerSubscriptionRequest struct {
	Username     string                  `json:"username"     validate:"required"`
	Subscription pushSubscriptionRequest `json:"subscription" validate:"required"`
}

type testNotificationRequest struct {
	Username string `json:"username" validate:"required"`
}

type publicKeyResponse struct {
	PublicKey string `json:"public_key"`
}
