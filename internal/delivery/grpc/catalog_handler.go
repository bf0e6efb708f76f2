package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"catalog_service/internal/domain"
	"catalog_service/internal/usecase"

	"github.com/golang/protobuf/ptypes/empty"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type CatalogHandler struct {
	productUseCase usecase.ProductUseCase
	log            *logrus.Logger
}

func NewCatalogHandler(puc usecase.ProductUseCase, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		productUseCase: puc,
		log:            logger,
	}
}

// toStruct renders a value through its JSON form so the wire shape matches the HTTP responses.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to encode response: %v", err)
	}
	return out, nil
}

func (h *CatalogHandler) ListProducts(ctx context.Context, _ *empty.Empty) (*structpb.Struct, error) {
	h.log.Info("gRPC Handler: Received ListProducts request")

	products, err := h.productUseCase.ListProducts(ctx)
	if err != nil {
		h.log.Errorf("gRPC Handler: ListProducts use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}

	h.log.Infof("gRPC Handler: Listed %d products successfully", len(products))
	return toStruct(map[string]interface{}{"products": products})
}

func (h *CatalogHandler) GetProduct(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := int(req.GetValue())
	h.log.Infof("gRPC Handler: Received GetProduct request: ID=%d", id)
	if id <= 0 {
		return nil, status.Error(codes.InvalidArgument, "Invalid product ID")
	}

	prod, err := h.productUseCase.GetProduct(ctx, id)
	if err != nil {
		h.log.Warnf("gRPC Handler: GetProduct use case error for ID %d: %v", id, err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}

	h.log.Infof("gRPC Handler: Product retrieved successfully: ID=%d", prod.ID)
	return toStruct(prod)
}

func (h *CatalogHandler) DeleteProduct(ctx context.Context, req *wrapperspb.Int64Value) (*empty.Empty, error) {
	id := int(req.GetValue())
	h.log.Infof("gRPC Handler: Received DeleteProduct request: ID=%d", id)
	if id <= 0 {
		return nil, status.Error(codes.InvalidArgument, "Invalid product ID")
	}

	if err := h.productUseCase.DeleteProduct(ctx, id); err != nil {
		h.log.Warnf("gRPC Handler: DeleteProduct use case error for ID %d: %v", id, err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}

	h.log.Infof("gRPC Handler: Product deleted successfully: ID=%d", id)
	return &emptypb.Empty{}, nil
}

func mapDomainErrorToGrpcStatus(err error) error {
	if err == nil {
		return nil
	}

	var rejection *domain.FormRejection
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, usecase.ErrInvalidProductID),
		errors.As(err, &rejection):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Errorf(codes.Internal, "Internal server error: %v", err)
	}
}
