package grpc

// proto.go defines the gRPC server interface for creditrisk.v1.CreditRiskService.
// Messages are plain Go structs carried by the JSON codec registered in
// codec.go; callers select it with the "json" content subtype.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Full method names, used by interceptors and clients.
const (
	ServiceName       = "creditrisk.v1.CreditRiskService"
	PredictFullMethod = "/" + ServiceName + "/Predict"
	ExplainFullMethod = "/" + ServiceName + "/Explain"
	healthCheckMethod = "/grpc.health.v1.Health/Check"
	healthWatchMethod = "/grpc.health.v1.Health/Watch"
)

// CreditRiskServiceServer is the server API for CreditRiskService.
type CreditRiskServiceServer interface {
	Predict(context.Context, *PredictRequest) (*PredictResponse, error)
	Explain(context.Context, *ExplainRequest) (*ExplainResponse, error)
	mustEmbedUnimplementedCreditRiskServiceServer()
}

// UnimplementedCreditRiskServiceServer provides forward-compatible default implementations.
type UnimplementedCreditRiskServiceServer struct{}

func (UnimplementedCreditRiskServiceServer) Predict(context.Context, *PredictRequest) (*PredictResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Predict not implemented")
}
func (UnimplementedCreditRiskServiceServer) Explain(context.Context, *ExplainRequest) (*ExplainResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Explain not implemented")
}
func (UnimplementedCreditRiskServiceServer) mustEmbedUnimplementedCreditRiskServiceServer() {}

// RegisterCreditRiskServiceServer registers srv with the gRPC server.
func RegisterCreditRiskServiceServer(s *grpclib.Server, srv CreditRiskServiceServer) {
	s.RegisterService(&_CreditRiskService_serviceDesc, srv)
}

var _CreditRiskService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CreditRiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Predict", Handler: _CreditRiskService_Predict_Handler},
		{MethodName: "Explain", Handler: _CreditRiskService_Explain_Handler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "creditrisk/v1/creditrisk.proto",
}

func _CreditRiskService_Predict_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(PredictRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditRiskServiceServer).Predict(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: PredictFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CreditRiskServiceServer).Predict(ctx, req.(*PredictRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _CreditRiskService_Explain_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(ExplainRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CreditRiskServiceServer).Explain(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: ExplainFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CreditRiskServiceServer).Explain(ctx, req.(*ExplainRequest))
	}
	return interceptor(ctx, req, info, handler)
}
