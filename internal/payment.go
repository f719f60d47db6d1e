package internal

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type CreatePaymentMethodRequest struct {
	Nickname string                `json:"nickname" validate:"required,max=64"`
	Type     MethodType            `json:"type" validate:"required,vmethod_type"`
	Country  Country               `json:"country" validate:"required,vcountry"`
	Details  *PaymentDetailsRequest `json:"details"`
}

type PaymentDetailsRequest struct {
	Brand string `json:"brand" validate:"omitempty,max=16"`
	Last4 string `json:"last4" validate:"omitempty,len=4,numeric"`
	Exp   string `json:"exp" validate:"omitempty,max=7"`
}

type PaymentService struct {
	methods PaymentMethodStorage
}

func NewPaymentService(methods PaymentMethodStorage) *PaymentService {
	return &PaymentService{methods: methods}
}

// ListMethods returns the caller's own methods. methodType may be empty.
func (x *PaymentService) ListMethods(ctx context.Context, actor Actor, methodType string) ([]*PaymentMethodView, error) {

	t := MethodType(methodType)
	if t != "" && !t.IsValid() {
		return nil, status.Error(codes.InvalidArgument, "type must be one of CARD, UPI, BANK")
	}

	dbMethods, err := x.methods.ListMethods(ctx, actor.ID, t)
	if err != nil {
		slog.Error("list payment methods", "err", err)
		return nil, errInternal
	}

	methods := make([]*PaymentMethodView, 0, len(dbMethods))
	for _, m := range dbMethods {
		methods = append(methods, m.IntoView())
	}
	return methods, nil
}

func (x *PaymentService) CreateMethod(ctx context.Context, actor Actor, in *CreatePaymentMethodRequest) (*PaymentMethodView, error) {

	in.Nickname = strings.TrimSpace(in.Nickname)
	if err := ValidateStruct(in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	method := &dbPaymentMethod{
		ID:         uuid.NewString(),
		Nickname:   in.Nickname,
		Type:       in.Type,
		Country:    in.Country,
		IsDefault:  false,
		CreatedBy:  actor.ID,
		CreateTime: timeNow(),
	}
	if in.Details != nil {
		method.Details = dbPaymentDetails{
			Brand: strings.ToUpper(strings.TrimSpace(in.Details.Brand)),
			Last4: in.Details.Last4,
			Exp:   in.Details.Exp,
		}
	}

	if err := x.methods.CreateMethod(ctx, method); err != nil {
		slog.Error("create payment method", "err", err)
		return nil, errInternal
	}

	return method.IntoView(), nil
}
