package ucapi

import (
	"fmt"

	"github.com/grandcat/zeroconf"
)

const serviceType = "_uc-integration._tcp"

// advertise announces the integration on the local network so the remote can
// discover it without manual configuration.
func (i *Integration) advertise() (*zeroconf.Server, error) {
	txt := []string{
		fmt.Sprintf("name=%s", i.Metadata.Name["en"]),
		fmt.Sprintf("ver=%s", i.Metadata.Version),
		"ws_path=/ws",
	}
	if i.Metadata.Developer != nil && i.Metadata.Developer.Name != "" {
		txt = append(txt, fmt.Sprintf("developer=%s", i.Metadata.Developer.Name))
	}

	server, err := zeroconf.Register(i.Metadata.DriverID, serviceType, "local.", i.listenPort, txt, nil)
	if err != nil {
		return nil, err
	}
	i.Logger.Debugf("Advertising %s on %s", i.Metadata.DriverID, serviceType)
	return server, nil
}
