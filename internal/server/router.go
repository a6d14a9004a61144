package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/docrouter/internal/common"
	"github.com/joseph-ayodele/docrouter/internal/entity"
	"github.com/joseph-ayodele/docrouter/internal/memory"
	"github.com/joseph-ayodele/docrouter/internal/utils"
)

const (
	RouterServiceName = "docrouter.v1.Router"

	MaxThreadIDLength = 128
)

// Processor runs one document through classification and extraction.
type Processor interface {
	Process(ctx context.Context, raw, threadID string) entity.Result
}

// RouterServer is the gRPC surface of the router. Requests and responses use the
// well-known protobuf types, so no generated stubs are needed.
type RouterServer interface {
	Process(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetContext(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	GetLastExtractedFields(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

type RouterService struct {
	processor Processor
	store     memory.Store
	logger    *slog.Logger
}

func NewRouterService(p Processor, store memory.Store, logger *slog.Logger) *RouterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RouterService{
		processor: p,
		store:     store,
		logger:    logger,
	}
}

// Process expects {"content": string, "thread_id": string?} and returns the handler result.
func (s *RouterService) Process(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	content := req.GetFields()["content"].GetStringValue()
	threadID := strings.TrimSpace(req.GetFields()["thread_id"].GetStringValue())

	v := common.NewValidator().
		Field("content", content, common.Required).
		Field("thread_id", threadID, common.MaxLength(MaxThreadIDLength))
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Error("process request invalid", "error", v.ErrorMessage())
		return nil, err
	}

	res := s.processor.Process(ctx, content, threadID)
	out, err := utils.ToPBStruct(res)
	if err != nil {
		s.logger.Error("failed to encode result", "thread_id", res.ThreadID(), "error", err)
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	s.logger.Info("document processed", "thread_id", res.ThreadID(), "is_error", res.IsError())
	return out, nil
}

func (s *RouterService) GetContext(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	threadID, err := s.threadID(req)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.Context(ctx, threadID)
	if err != nil {
		s.logger.Error("failed to read thread context", "thread_id", threadID, "error", err)
		return nil, storeError(err)
	}
	out, err := utils.ToPBRecordList(recs)
	if err != nil {
		return nil, common.InternalErrorf("encode records: %v", err)
	}
	s.logger.Info("thread context read", "thread_id", threadID, "count", len(recs))
	return out, nil
}

func (s *RouterService) GetLastExtractedFields(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	threadID, err := s.threadID(req)
	if err != nil {
		return nil, err
	}
	fields, err := s.store.LastExtractedFields(ctx, threadID)
	if err != nil {
		s.logger.Error("failed to read last fields", "thread_id", threadID, "error", err)
		return nil, storeError(err)
	}
	out, err := utils.ToPBStruct(fields)
	if err != nil {
		return nil, common.InternalErrorf("encode fields: %v", err)
	}
	return out, nil
}

func (s *RouterService) threadID(req *wrapperspb.StringValue) (string, error) {
	id := strings.TrimSpace(req.GetValue())
	v := common.NewValidator().
		Field("thread_id", id, common.Required, common.MaxLength(MaxThreadIDLength))
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Error("thread request invalid", "error", v.ErrorMessage())
		return "", err
	}
	return id, nil
}

func storeError(err error) error {
	if errors.Is(err, common.ErrStore) {
		return common.InternalError("interaction store unavailable")
	}
	return common.InternalErrorf("%v", err)
}

// RegisterRouterServer attaches srv to s under RouterServiceName.
func RegisterRouterServer(s grpc.ServiceRegistrar, srv RouterServer) {
	s.RegisterService(&RouterServiceDesc, srv)
}

var RouterServiceDesc = grpc.ServiceDesc{
	ServiceName: RouterServiceName,
	HandlerType: (*RouterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Process", Handler: processHandler},
		{MethodName: "GetContext", Handler: getContextHandler},
		{MethodName: "GetLastExtractedFields", Handler: getLastFieldsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docrouter/v1/router.proto",
}

func fullMethod(name string) string { return "/" + RouterServiceName + "/" + name }

func processHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RouterServer).Process(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("Process")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RouterServer).Process(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getContextHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RouterServer).GetContext(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("GetContext")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RouterServer).GetContext(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getLastFieldsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RouterServer).GetLastExtractedFields(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("GetLastExtractedFields")}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RouterServer).GetLastExtractedFields(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// RouterClient calls a remote RouterServer.
type RouterClient struct {
	cc grpc.ClientConnInterface
}

func NewRouterClient(cc grpc.ClientConnInterface) *RouterClient {
	return &RouterClient{cc: cc}
}

func (c *RouterClient) Process(ctx context.Context, content, threadID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"content": content, "thread_id": threadID})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("Process"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RouterClient) GetContext(ctx context.Context, threadID string, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, fullMethod("GetContext"), wrapperspb.String(threadID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RouterClient) GetLastExtractedFields(ctx context.Context, threadID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("GetLastExtractedFields"), wrapperspb.String(threadID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
