package bootstrap

import (
	"github.com/kbukum/pspkit/config"
)

// Config is what App needs from a service's configuration. A struct that
// embeds config.ServiceConfig gets GetServiceConfig by promotion; pspd's
// Config overrides ApplyDefaults and Validate to cover its PSP and server
// sections as well.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
