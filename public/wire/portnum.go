package wire

// PortNum tags the application payload carried inside a Data message.
type PortNum uint32

const (
	PortNumUnknown       PortNum = 0
	PortNumTextMessage   PortNum = 1
	PortNumRemoteHw      PortNum = 2
	PortNumPosition      PortNum = 3
	PortNumNodeInfo      PortNum = 4
	PortNumRouting       PortNum = 5
	PortNumAdmin         PortNum = 6
	PortNumTextCompress  PortNum = 7
	PortNumWaypoint      PortNum = 8
	PortNumAudio         PortNum = 9
	PortNumDetection     PortNum = 10
	PortNumReply         PortNum = 32
	PortNumIPTunnel      PortNum = 33
	PortNumPaxcounter    PortNum = 34
	PortNumSerial        PortNum = 64
	PortNumStoreForward  PortNum = 65
	PortNumRangeTest     PortNum = 66
	PortNumTelemetry     PortNum = 67
	PortNumZPS           PortNum = 68
	PortNumSimulator     PortNum = 69
	PortNumTraceroute    PortNum = 70
	PortNumNeighborInfo  PortNum = 71
	PortNumATAK          PortNum = 72
	PortNumMapReport     PortNum = 73
	PortNumPrivate       PortNum = 256
	PortNumATAKForwarder PortNum = 257
	PortNumMax           PortNum = 511
)

var portNames = map[PortNum]string{
	PortNumUnknown:       "UNKNOWN",
	PortNumTextMessage:   "TEXT_MESSAGE",
	PortNumRemoteHw:      "REMOTE_HARDWARE",
	PortNumPosition:      "POSITION",
	PortNumNodeInfo:      "NODEINFO",
	PortNumRouting:       "ROUTING",
	PortNumAdmin:         "ADMIN",
	PortNumTextCompress:  "TEXT_MESSAGE_COMPRESSED",
	PortNumWaypoint:      "WAYPOINT",
	PortNumAudio:         "AUDIO",
	PortNumDetection:     "DETECTION_SENSOR",
	PortNumReply:         "REPLY",
	PortNumIPTunnel:      "IP_TUNNEL",
	PortNumPaxcounter:    "PAXCOUNTER",
	PortNumSerial:        "SERIAL",
	PortNumStoreForward:  "STORE_FORWARD",
	PortNumRangeTest:     "RANGE_TEST",
	PortNumTelemetry:     "TELEMETRY",
	PortNumZPS:           "ZPS",
	PortNumSimulator:     "SIMULATOR",
	PortNumTraceroute:    "TRACEROUTE",
	PortNumNeighborInfo:  "NEIGHBORINFO",
	PortNumATAK:          "ATAK_PLUGIN",
	PortNumMapReport:     "MAP_REPORT",
	PortNumPrivate:       "PRIVATE",
	PortNumATAKForwarder: "ATAK_FORWARDER",
}

// Name returns the enumerator name without the _APP suffix, as shown to
// browsers. Unlisted ports render as UNKNOWN.
func (p PortNum) Name() string {
	if name, ok := portNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

func (p PortNum) String() string { return p.Name() }
