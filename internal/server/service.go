package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "freight.v1.IntakeService"

// Method names of IntakeService.
const (
	MethodNormalize       = "Normalize"
	MethodRevalidate      = "Revalidate"
	MethodSubmitDocument  = "SubmitDocument"
	MethodEditDocument    = "EditDocument"
	MethodGetDocument     = "GetDocument"
	MethodListDocuments   = "ListDocuments"
	MethodPinDocument     = "PinDocument"
	MethodExportDocument  = "ExportDocument"
	MethodExportDocuments = "ExportDocuments"
)

// IntakeServiceServer is the server API of IntakeService. Every message is
// a google.protobuf.Struct holding the JSON shape of the request.
type IntakeServiceServer interface {
	Normalize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Revalidate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDocuments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PinDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportDocuments(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(IntakeServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(IntakeServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes IntakeService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IntakeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodNormalize, IntakeServiceServer.Normalize),
		unaryHandler(MethodRevalidate, IntakeServiceServer.Revalidate),
		unaryHandler(MethodSubmitDocument, IntakeServiceServer.SubmitDocument),
		unaryHandler(MethodEditDocument, IntakeServiceServer.EditDocument),
		unaryHandler(MethodGetDocument, IntakeServiceServer.GetDocument),
		unaryHandler(MethodListDocuments, IntakeServiceServer.ListDocuments),
		unaryHandler(MethodPinDocument, IntakeServiceServer.PinDocument),
		unaryHandler(MethodExportDocument, IntakeServiceServer.ExportDocument),
		unaryHandler(MethodExportDocuments, IntakeServiceServer.ExportDocuments),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "freight/v1/intake.proto",
}

// RegisterIntakeServiceServer registers srv on s.
func RegisterIntakeServiceServer(s grpc.ServiceRegistrar, srv IntakeServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls IntakeService over any connection.
type Client struct {
	cc     grpc.ClientConnInterface
	logger *slog.Logger
}

func NewClient(cc grpc.ClientConnInterface, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cc: cc, logger: logger}
}

// Call invokes method with req and returns the response Struct.
func (c *Client) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		c.logger.Debug("rpc.client.error", "method", method, "error", err)
		return nil, err
	}
	return out, nil
}
