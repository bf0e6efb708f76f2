package grpc_test

import (
	"context"
	"io"
	"net"
	"testing"

	"catalog_service/internal/delivery/grpc"
	"catalog_service/internal/domain"
	"catalog_service/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/reflection"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

type stubUseCase struct {
	usecase.ProductUseCase
	products  []domain.ProductListItem
	product   *domain.Product
	err       error
	deletedID int
}

func (s *stubUseCase) ListProducts(_ context.Context) ([]domain.ProductListItem, error) {
	return s.products, s.err
}

func (s *stubUseCase) GetProduct(_ context.Context, id int) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func (s *stubUseCase) DeleteProduct(_ context.Context, id int) error {
	s.deletedID = id
	return s.err
}

func dialCatalog(t *testing.T, uc usecase.ProductUseCase) *grpc.CatalogClient {
	t.Helper()
	return grpc.NewCatalogClient(dial(t, uc))
}

func dial(t *testing.T, uc usecase.ProductUseCase) *gogrpc.ClientConn {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	lis := bufconn.Listen(1 << 20)
	server := gogrpc.NewServer()
	grpc.RegisterCatalogServiceServer(server, grpc.NewCatalogHandler(uc, logger))
	reflection.Register(server)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := gogrpc.NewClient("passthrough:///bufnet",
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestListProductsOverGrpc(t *testing.T) {
	client := dialCatalog(t, &stubUseCase{products: []domain.ProductListItem{
		{ID: 1, Name: "Fern", Price: decimal.RequireFromString("12.5"), CategoryName: "Plants", Image: "a.png"},
	}})

	out, err := client.ListProducts(context.Background())
	require.NoError(t, err)

	products := out.AsMap()["products"].([]interface{})
	require.Len(t, products, 1)
	first := products[0].(map[string]interface{})
	assert.Equal(t, "Fern", first["name"])
	assert.Equal(t, float64(1), first["id"])
	assert.Equal(t, "12.5", first["price"])
}

func TestGetProductOverGrpc(t *testing.T) {
	client := dialCatalog(t, &stubUseCase{product: &domain.Product{
		ID:   7,
		Name: "Fern",
		Images: []domain.ProductImage{
			{ID: 1, ImageURL: "main.png", Kind: domain.ImageMain},
		},
	}})

	out, err := client.GetProduct(context.Background(), 7)
	require.NoError(t, err)

	fields := out.AsMap()
	assert.Equal(t, "Fern", fields["name"])
	images := fields["images"].([]interface{})
	require.Len(t, images, 1)
	assert.Equal(t, "main", images[0].(map[string]interface{})["kind"])
}

func TestGrpcErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		id   int64
		code codes.Code
	}{
		{"invalid id", nil, 0, codes.InvalidArgument},
		{"not found", &domain.NotFoundError{Entity: "product", ID: 3}, 3, codes.NotFound},
		{"internal", &domain.StorageError{Op: "delete", Path: "x", Err: io.ErrUnexpectedEOF}, 3, codes.Internal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := dialCatalog(t, &stubUseCase{err: tc.err})

			_, err := client.GetProduct(context.Background(), tc.id)
			assert.Equal(t, tc.code, status.Code(err))

			err = client.DeleteProduct(context.Background(), tc.id)
			assert.Equal(t, tc.code, status.Code(err))
		})
	}
}

func TestDeleteProductOverGrpc(t *testing.T) {
	uc := &stubUseCase{}
	client := dialCatalog(t, uc)

	require.NoError(t, client.DeleteProduct(context.Background(), 9))
	assert.Equal(t, 9, uc.deletedID)
}

func TestCatalogServiceDescriptorRegistered(t *testing.T) {
	desc, err := protoregistry.GlobalFiles.FindDescriptorByName("catalog.CatalogService")
	require.NoError(t, err)
	service, ok := desc.(protoreflect.ServiceDescriptor)
	require.True(t, ok)

	methods := service.Methods()
	require.Equal(t, 3, methods.Len())
	get := methods.ByName("GetProduct")
	require.NotNil(t, get)
	assert.Equal(t, protoreflect.FullName("google.protobuf.Int64Value"), get.Input().FullName())
	assert.Equal(t, protoreflect.FullName("google.protobuf.Struct"), get.Output().FullName())
	assert.Equal(t, "catalog.proto", service.ParentFile().Path())
}

func TestReflectionDescribesCatalogService(t *testing.T) {
	conn := dial(t, &stubUseCase{})

	stream, err := reflectionpb.NewServerReflectionClient(conn).ServerReflectionInfo(context.Background())
	require.NoError(t, err)
	require.NoError(t, stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_FileContainingSymbol{
			FileContainingSymbol: "catalog.CatalogService",
		},
	}))
	resp, err := stream.Recv()
	require.NoError(t, err)
	require.NoError(t, stream.CloseSend())

	files := resp.GetFileDescriptorResponse().GetFileDescriptorProto()
	require.NotEmpty(t, files, "error response: %v", resp.GetErrorResponse())

	file := &descriptorpb.FileDescriptorProto{}
	require.NoError(t, proto.Unmarshal(files[0], file))
	assert.Equal(t, "catalog.proto", file.GetName())
	require.Len(t, file.GetService(), 1)
	assert.Len(t, file.GetService()[0].GetMethod(), 3)
}
