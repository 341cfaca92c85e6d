package resource

import (
	"os"

	"github.com/google/uuid"
)

const (
	ServiceNameKey       = "service.name"
	ServiceVersionKey    = "service.version"
	ServiceInstanceIDKey = "service.instance.id"
)

// Resource is the static identity stamped onto every span and metric data
// point a process emits. It never changes for the process lifetime.
type Resource struct {
	ServiceName       string
	ServiceVersion    string
	ServiceInstanceID string
}

// New builds a resource for the given service. The instance id comes from
// HOSTNAME when set (the usual case in a container), otherwise a generated
// UUID keeps instances distinguishable on a shared host.
func New(serviceName string, serviceVersion string) Resource {
	instanceID := os.Getenv("HOSTNAME")
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	return Resource{
		ServiceName:       serviceName,
		ServiceVersion:    serviceVersion,
		ServiceInstanceID: instanceID,
	}
}

// Attributes returns the resource as attribute pairs in export form.
func (r Resource) Attributes() map[string]string {
	return map[string]string{
		ServiceNameKey:       r.ServiceName,
		ServiceVersionKey:    r.ServiceVersion,
		ServiceInstanceIDKey: r.ServiceInstanceID,
	}
}
