package protocol

// Daemon message types. Every outbound daemon message is stamped with the
// receiver's application id before transmission.
const (
	DaemonRegister           = "register"
	DaemonRegisterOK         = "registerok"
	DaemonStartHeartbeat     = "startheartbeat"
	DaemonHeartbeat          = "heartbeat"
	DaemonSenderConnected    = "senderconnected"
	DaemonSenderDisconnected = "senderdisconnected"
	DaemonAdditionalData     = "additionaldata"
	DaemonUnregister         = "unregister"
)

// Heartbeat payload values.
const (
	HeartbeatPing = "ping"
	HeartbeatPong = "pong"
)

// DaemonMessage is the JSON frame exchanged with the local fling daemon.
type DaemonMessage struct {
	Type           string            `json:"type"`
	AppID          string            `json:"appid,omitempty"`
	Heartbeat      string            `json:"heartbeat,omitempty"`
	ServiceInfo    *ServiceInfo      `json:"service_info,omitempty"`
	AdditionalData map[string]string `json:"additionaldata,omitempty"`
	Token          string            `json:"token,omitempty"`
}

// ServiceInfo is delivered by the daemon in the registerok acknowledgement
// and identifies the device this receiver runs on.
type ServiceInfo struct {
	IP         []string `json:"ip"`
	UUID       string   `json:"uuid"`
	DeviceName string   `json:"device_name"`
}

// LocalIP returns the daemon-reported primary address, or the empty string
// when the daemon supplied none.
func (si ServiceInfo) LocalIP() string {
	if len(si.IP) == 0 {
		return ""
	}
	return si.IP[0]
}
