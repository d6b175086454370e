package cluster

import (
	"fmt"
	"os"

	consul "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// Service describes how this process is advertised in Consul.
type Service struct {
	Name string
	// Host is where the health check reaches us. Empty means the machine hostname.
	Host string
	Port int
}

// ID is unique per host so several replicas can register under one name.
func (s Service) ID() string {
	return fmt.Sprintf("%s-%s", s.Name, s.host())
}

func (s Service) host() string {
	if s.Host != "" {
		return s.Host
	}
	if h := os.Getenv("HOSTNAME"); h != "" {
		return h
	}
	h, _ := os.Hostname()
	return h
}

func (s Service) registration() *consul.AgentServiceRegistration {
	host := s.host()
	return &consul.AgentServiceRegistration{
		ID:   s.ID(),
		Name: s.Name,
		Port: s.Port,
		Tags: []string{"websocket"},
		Check: &consul.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", host, s.Port),
			Timeout:                        "5s",
			Interval:                       "10s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// Registration is a live entry in the Consul catalog.
type Registration struct {
	client *consul.Client
	id     string
	log    *zap.Logger
}

// Register advertises svc through the first reachable agent in consulAddrs.
func Register(svc Service, consulAddrs string, log *zap.Logger) (*Registration, error) {
	log = log.Named("cluster")
	client, err := NewConsulClient(consulAddrs, log)
	if err != nil {
		return nil, err
	}
	reg := svc.registration()
	if err := client.Agent().ServiceRegister(reg); err != nil {
		return nil, fmt.Errorf("register %s in consul: %w", reg.ID, err)
	}
	log.Info("service registered", zap.String("service", svc.Name), zap.String("id", reg.ID),
		zap.String("check", reg.Check.HTTP))
	return &Registration{client: client, id: reg.ID, log: log}, nil
}

// Deregister removes the entry. It is called on graceful shutdown.
func (r *Registration) Deregister() error {
	if err := r.client.Agent().ServiceDeregister(r.id); err != nil {
		return fmt.Errorf("deregister %s: %w", r.id, err)
	}
	r.log.Info("service deregistered", zap.String("id", r.id))
	return nil
}
