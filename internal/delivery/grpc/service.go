package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "warehouse.inventory.v1.Inventory"

// InventoryServer is the server API of the Inventory service. Every method
// exchanges google.protobuf.Struct messages whose fields mirror the HTTP JSON
// bodies.
type InventoryServer interface {
	ListCategories(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IssueStock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReceiveStock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(InventoryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InventoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(InventoryServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("ListCategories", InventoryServer.ListCategories),
		unaryMethod("CreateCategory", InventoryServer.CreateCategory),
		unaryMethod("DeleteCategory", InventoryServer.DeleteCategory),
		unaryMethod("ListProducts", InventoryServer.ListProducts),
		unaryMethod("CreateProduct", InventoryServer.CreateProduct),
		unaryMethod("UpdateProduct", InventoryServer.UpdateProduct),
		unaryMethod("DeleteProduct", InventoryServer.DeleteProduct),
		unaryMethod("IssueStock", InventoryServer.IssueStock),
		unaryMethod("ReceiveStock", InventoryServer.ReceiveStock),
		unaryMethod("Refresh", InventoryServer.Refresh),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "warehouse/inventory/v1/inventory.proto",
}

func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}
