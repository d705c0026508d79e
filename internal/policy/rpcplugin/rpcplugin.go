// Package rpcplugin wraps internal/policy/sdk.Policy as a HashiCorp
// go-plugin plugin over the net/rpc transport. The teacher's own
// internal/engine/grpc package is non-functional scaffolding (every RPC
// method is a stub returning a zero value; see DESIGN.md) — net/rpc needs
// no generated code and is fully functional without running protoc.
package rpcplugin

import (
	"context"
	"net/rpc"

	"github.com/hashicorp/go-plugin"

	"github.com/fiddlerhealth/abasolve/internal/policy/sdk"
)

// Handshake is the shared magic cookie both host and plugin process check
// before exchanging any RPC, mirroring the teacher's
// internal/engine/grpc.HandshakeConfig.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "ABASOLVE_POLICY_PLUGIN",
	MagicCookieValue: "weights-v1",
}

// PluginMap is passed to both plugin.NewClient (host side) and
// plugin.Serve (plugin side).
var PluginMap = map[string]plugin.Plugin{
	"policy": &Plugin{},
}

// Plugin implements plugin.Plugin for a Policy served over net/rpc.
type Plugin struct {
	Impl sdk.Policy
}

func (p *Plugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

func (p *Plugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}

// Serve runs impl as a standalone policy plugin process. cmd/policyplugin
// calls this from main.
func Serve(impl sdk.Policy) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			"policy": &Plugin{Impl: impl},
		},
	})
}

// --- RPC wire types ---

// WeightsArgs carries the Weights call's arguments across the RPC boundary.
// context.Context does not serialize, so only the fields a policy might
// use (the selected date) cross the wire.
type WeightsArgs struct {
	Date string
}

type WeightsReply struct {
	Weights sdk.Weights
	Err     string
}

type InitializeArgs struct {
	Config map[string]string
}

type MetadataReply struct {
	Metadata sdk.Metadata
}

type ErrReply struct {
	Err string
}

// RPCServer is the plugin-process side: it receives net/rpc calls and
// dispatches them to the real sdk.Policy implementation.
type RPCServer struct {
	Impl sdk.Policy
}

func (s *RPCServer) Metadata(args interface{}, reply *MetadataReply) error {
	reply.Metadata = s.Impl.Metadata()
	return nil
}

func (s *RPCServer) Initialize(args *InitializeArgs, reply *ErrReply) error {
	if err := s.Impl.Initialize(context.Background(), args.Config); err != nil {
		reply.Err = err.Error()
	}
	return nil
}

func (s *RPCServer) Weights(args *WeightsArgs, reply *WeightsReply) error {
	w, err := s.Impl.Weights(context.Background(), args.Date)
	reply.Weights = w
	if err != nil {
		reply.Err = err.Error()
	}
	return nil
}

func (s *RPCServer) HealthCheck(args interface{}, reply *ErrReply) error {
	if err := s.Impl.HealthCheck(context.Background()); err != nil {
		reply.Err = err.Error()
	}
	return nil
}

func (s *RPCServer) Shutdown(args interface{}, reply *ErrReply) error {
	if err := s.Impl.Shutdown(context.Background()); err != nil {
		reply.Err = err.Error()
	}
	return nil
}

// RPCClient is the host-process side: it implements sdk.Policy by making
// net/rpc calls into the plugin process.
type RPCClient struct {
	client *rpc.Client
}

func (c *RPCClient) Metadata() sdk.Metadata {
	var reply MetadataReply
	if err := c.client.Call("Plugin.Metadata", new(interface{}), &reply); err != nil {
		return sdk.Metadata{}
	}
	return reply.Metadata
}

func (c *RPCClient) Initialize(ctx context.Context, config map[string]string) error {
	var reply ErrReply
	if err := c.client.Call("Plugin.Initialize", &InitializeArgs{Config: config}, &reply); err != nil {
		return err
	}
	return errFromString(reply.Err)
}

func (c *RPCClient) Weights(ctx context.Context, date string) (sdk.Weights, error) {
	var reply WeightsReply
	if err := c.client.Call("Plugin.Weights", &WeightsArgs{Date: date}, &reply); err != nil {
		return sdk.Weights{}, err
	}
	return reply.Weights, errFromString(reply.Err)
}

func (c *RPCClient) HealthCheck(ctx context.Context) error {
	var reply ErrReply
	if err := c.client.Call("Plugin.HealthCheck", new(interface{}), &reply); err != nil {
		return err
	}
	return errFromString(reply.Err)
}

func (c *RPCClient) Shutdown(ctx context.Context) error {
	var reply ErrReply
	if err := c.client.Call("Plugin.Shutdown", new(interface{}), &reply); err != nil {
		return err
	}
	return errFromString(reply.Err)
}

func errFromString(s string) error {
	if s == "" {
		return nil
	}
	return rpcError(s)
}

type rpcError string

func (e rpcError) Error() string { return string(e) }
