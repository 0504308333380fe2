package wire

import "math"

// PortPayload is the tagged variant over the typed app payloads the bridge
// decodes. Ports outside the supported set stay opaque bytes on the Data.
type PortPayload interface {
	portPayload()
}

// TextMessage is the payload of PortNumTextMessage: raw UTF-8.
type TextMessage struct {
	Text string `json:"text"`
}

// Position is the payload of PortNumPosition. Latitude and Longitude are
// derived from the fixed-point wire fields by dividing by 1e7.
type Position struct {
	LatitudeI     int32   `json:"latitudeI"`
	LongitudeI    int32   `json:"longitudeI"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Altitude      int32   `json:"altitude,omitempty"`
	Time          uint32  `json:"time,omitempty"`
	GroundSpeed   uint32  `json:"groundSpeed,omitempty"`
	GroundTrack   uint32  `json:"groundTrack,omitempty"`
	SatsInView    uint32  `json:"satsInView,omitempty"`
	PrecisionBits uint32  `json:"precisionBits,omitempty"`
}

// User is the payload of PortNumNodeInfo.
type User struct {
	ID         string `json:"id"`
	LongName   string `json:"longName"`
	ShortName  string `json:"shortName"`
	HwModel    uint32 `json:"hwModel,omitempty"`
	IsLicensed bool   `json:"isLicensed,omitempty"`
	Role       uint32 `json:"role,omitempty"`
}

// RouteDiscovery is the payload of PortNumTraceroute and the body of both
// Routing variants. SNR values arrive in quarter-dB steps and are stored in
// dB.
type RouteDiscovery struct {
	Route      []uint32  `json:"route,omitempty"`
	SnrTowards []float32 `json:"snrTowards,omitempty"`
	RouteBack  []uint32  `json:"routeBack,omitempty"`
	SnrBack    []float32 `json:"snrBack,omitempty"`
}

// Routing is the payload of PortNumRouting.
type Routing struct {
	RouteRequest *RouteDiscovery `json:"routeRequest,omitempty"`
	RouteReply   *RouteDiscovery `json:"routeReply,omitempty"`
	ErrorReason  uint32          `json:"errorReason"`
}

// DeviceMetrics is the device variant of Telemetry.
type DeviceMetrics struct {
	BatteryLevel       uint32  `json:"batteryLevel,omitempty"`
	Voltage            float32 `json:"voltage,omitempty"`
	ChannelUtilization float32 `json:"channelUtilization,omitempty"`
	AirUtilTx          float32 `json:"airUtilTx,omitempty"`
	UptimeSeconds      uint32  `json:"uptimeSeconds,omitempty"`
}

// EnvironmentMetrics is the environment variant of Telemetry.
type EnvironmentMetrics struct {
	Temperature        float32 `json:"temperature,omitempty"`
	RelativeHumidity   float32 `json:"relativeHumidity,omitempty"`
	BarometricPressure float32 `json:"barometricPressure,omitempty"`
	GasResistance      float32 `json:"gasResistance,omitempty"`
	Voltage            float32 `json:"voltage,omitempty"`
	IAQ                uint32  `json:"iaq,omitempty"`
}

// Telemetry is the payload of PortNumTelemetry.
type Telemetry struct {
	Time               uint32              `json:"time,omitempty"`
	DeviceMetrics      *DeviceMetrics      `json:"deviceMetrics,omitempty"`
	EnvironmentMetrics *EnvironmentMetrics `json:"environmentMetrics,omitempty"`
}

// Neighbor is one entry of a NeighborInfo payload.
type Neighbor struct {
	NodeID uint32  `json:"nodeId"`
	Snr    float32 `json:"snr,omitempty"`
}

// NeighborInfo is the payload of PortNumNeighborInfo.
type NeighborInfo struct {
	NodeID                    uint32     `json:"nodeId"`
	LastSentByID              uint32     `json:"lastSentById,omitempty"`
	NodeBroadcastIntervalSecs uint32     `json:"nodeBroadcastIntervalSecs,omitempty"`
	Neighbors                 []Neighbor `json:"neighbors,omitempty"`
}

// MapReport is the payload of PortNumMapReport.
type MapReport struct {
	LongName            string  `json:"longName,omitempty"`
	ShortName           string  `json:"shortName,omitempty"`
	Role                uint32  `json:"role,omitempty"`
	HwModel             uint32  `json:"hwModel,omitempty"`
	FirmwareVersion     string  `json:"firmwareVersion,omitempty"`
	Region              uint32  `json:"region,omitempty"`
	ModemPreset         uint32  `json:"modemPreset,omitempty"`
	HasDefaultChannel   bool    `json:"hasDefaultChannel,omitempty"`
	LatitudeI           int32   `json:"latitudeI,omitempty"`
	LongitudeI          int32   `json:"longitudeI,omitempty"`
	Latitude            float64 `json:"latitude,omitempty"`
	Longitude           float64 `json:"longitude,omitempty"`
	Altitude            int32   `json:"altitude,omitempty"`
	PositionPrecision   uint32  `json:"positionPrecision,omitempty"`
	NumOnlineLocalNodes uint32  `json:"numOnlineLocalNodes,omitempty"`
}

// AdminMessage is the payload of PortNumAdmin. The admin schema is a large
// oneof; the bridge only surfaces which variant arrived plus the session
// passkey, leaving the body opaque.
type AdminMessage struct {
	VariantField   uint32 `json:"variantField,omitempty"`
	SessionPasskey []byte `json:"sessionPasskey,omitempty"`
}

func (*TextMessage) portPayload()    {}
func (*Position) portPayload()       {}
func (*User) portPayload()           {}
func (*RouteDiscovery) portPayload() {}
func (*Routing) portPayload()        {}
func (*Telemetry) portPayload()      {}
func (*NeighborInfo) portPayload()   {}
func (*MapReport) portPayload()      {}
func (*AdminMessage) portPayload()   {}

// DecodePortPayload decodes the typed payload for the supported ports. It
// returns false for unsupported ports and for payloads that do not parse; it
// never returns an error.
func DecodePortPayload(port PortNum, payload []byte) (PortPayload, bool) {
	switch port {
	case PortNumTextMessage:
		return &TextMessage{Text: string(payload)}, true
	case PortNumPosition:
		return decodePosition(payload)
	case PortNumNodeInfo:
		return decodeUser(payload)
	case PortNumRouting:
		return decodeRouting(payload)
	case PortNumAdmin:
		return decodeAdmin(payload)
	case PortNumTelemetry:
		return decodeTelemetry(payload)
	case PortNumTraceroute:
		return decodeRouteDiscovery(payload)
	case PortNumNeighborInfo:
		return decodeNeighborInfo(payload)
	case PortNumMapReport:
		return decodeMapReport(payload)
	default:
		return nil, false
	}
}

func decodePosition(buf []byte) (*Position, bool) {
	p := &Position{}
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return nil, false
		}
		if !ok {
			p.Latitude = float64(p.LatitudeI) / 1e7
			p.Longitude = float64(p.LongitudeI) / 1e7
			return p, true
		}
		switch field {
		case 1:
			v, err := r.fixed32(field)
			if err != nil {
				return nil, false
			}
			p.LatitudeI = int32(v)
		case 2:
			v, err := r.fixed32(field)
			if err != nil {
				return nil, false
			}
			p.LongitudeI = int32(v)
		case 3:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			p.Altitude = int32(v)
		case 4:
			v, err := r.uint32Field(field, wt)
			if err != nil {
				return nil, false
			}
			p.Time = v
		case 15:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			p.GroundSpeed = uint32(v)
		case 16:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			p.GroundTrack = uint32(v)
		case 19:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			p.SatsInView = uint32(v)
		case 23:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			p.PrecisionBits = uint32(v)
		default:
			if err := r.skip(field, wt); err != nil {
				return nil, false
			}
		}
	}
}

func decodeUser(buf []byte) (*User, bool) {
	u := &User{}
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return nil, false
		}
		if !ok {
			return u, true
		}
		switch field {
		case 1, 2, 3:
			b, err := r.bytes(field)
			if err != nil {
				return nil, false
			}
			switch field {
			case 1:
				u.ID = string(b)
			case 2:
				u.LongName = string(b)
			case 3:
				u.ShortName = string(b)
			}
		case 5:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			u.HwModel = uint32(v)
		case 6:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			u.IsLicensed = v != 0
		case 7:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			u.Role = uint32(v)
		default:
			if err := r.skip(field, wt); err != nil {
				return nil, false
			}
		}
	}
}

// snrFromQuarterDB sign-extends a quarter-dB reading and converts it to dB.
func snrFromQuarterDB(v int64) float32 {
	return float32(v) / 4
}

// parsePackedSnr accepts both encodings seen in the wild: a packed run of
// varints, or raw bytes where each byte is a signed 8-bit quarter-dB value.
// SNR readings fit in a signed byte, so a varint parse that yields anything
// outside that range means the field was really raw bytes.
func parsePackedSnr(b []byte) []float32 {
	rawBytes := func() []float32 {
		vals := make([]float32, 0, len(b))
		for _, raw := range b {
			vals = append(vals, snrFromQuarterDB(int64(int8(raw))))
		}
		return vals
	}

	var vals []float32
	r := &reader{buf: b}
	for r.pos < len(r.buf) {
		v, err := r.varint(0)
		if err != nil {
			return rawBytes()
		}
		sv := int64(v)
		if sv < -128 || sv > 127 {
			return rawBytes()
		}
		vals = append(vals, snrFromQuarterDB(sv))
	}
	return vals
}

// parsePackedFixed32 reads a packed run of little-endian fixed32 values.
func parsePackedFixed32(b []byte) []uint32 {
	var vals []uint32
	r := &reader{buf: b}
	for r.remaining() >= 4 {
		v, _ := r.fixed32(0)
		vals = append(vals, v)
	}
	return vals
}

func decodeRouteDiscovery(buf []byte) (*RouteDiscovery, bool) {
	rd := &RouteDiscovery{}
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return nil, false
		}
		if !ok {
			return rd, true
		}
		switch field {
		case 1, 3:
			var vals []uint32
			switch wt {
			case wireBytes:
				b, err := r.bytes(field)
				if err != nil {
					return nil, false
				}
				vals = parsePackedFixed32(b)
			case wireFixed32:
				v, err := r.fixed32(field)
				if err != nil {
					return nil, false
				}
				vals = []uint32{v}
			case wireVarint:
				v, err := r.varint(field)
				if err != nil {
					return nil, false
				}
				vals = []uint32{uint32(v)}
			default:
				return nil, false
			}
			if field == 1 {
				rd.Route = append(rd.Route, vals...)
			} else {
				rd.RouteBack = append(rd.RouteBack, vals...)
			}
		case 2, 4:
			var vals []float32
			switch wt {
			case wireBytes:
				b, err := r.bytes(field)
				if err != nil {
					return nil, false
				}
				vals = parsePackedSnr(b)
			case wireVarint:
				v, err := r.varint(field)
				if err != nil {
					return nil, false
				}
				vals = []float32{snrFromQuarterDB(int64(v))}
			default:
				return nil, false
			}
			if field == 2 {
				rd.SnrTowards = append(rd.SnrTowards, vals...)
			} else {
				rd.SnrBack = append(rd.SnrBack, vals...)
			}
		default:
			if err := r.skip(field, wt); err != nil {
				return nil, false
			}
		}
	}
}

func decodeRouting(buf []byte) (*Routing, bool) {
	rt := &Routing{}
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return nil, false
		}
		if !ok {
			return rt, true
		}
		switch field {
		case 1, 2:
			b, err := r.bytes(field)
			if err != nil {
				return nil, false
			}
			rd, ok := decodeRouteDiscovery(b)
			if !ok {
				return nil, false
			}
			if field == 1 {
				rt.RouteRequest = rd
			} else {
				rt.RouteReply = rd
			}
		case 3:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			rt.ErrorReason = uint32(v)
		default:
			if err := r.skip(field, wt); err != nil {
				return nil, false
			}
		}
	}
}

func decodeTelemetry(buf []byte) (*Telemetry, bool) {
	t := &Telemetry{}
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return nil, false
		}
		if !ok {
			return t, true
		}
		switch field {
		case 1:
			v, err := r.uint32Field(field, wt)
			if err != nil {
				return nil, false
			}
			t.Time = v
		case 2:
			b, err := r.bytes(field)
			if err != nil {
				return nil, false
			}
			dm, ok := decodeDeviceMetrics(b)
			if !ok {
				return nil, false
			}
			t.DeviceMetrics = dm
		case 3:
			b, err := r.bytes(field)
			if err != nil {
				return nil, false
			}
			em, ok := decodeEnvironmentMetrics(b)
			if !ok {
				return nil, false
			}
			t.EnvironmentMetrics = em
		default:
			if err := r.skip(field, wt); err != nil {
				return nil, false
			}
		}
	}
}

func decodeDeviceMetrics(buf []byte) (*DeviceMetrics, bool) {
	m := &DeviceMetrics{}
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return nil, false
		}
		if !ok {
			return m, true
		}
		switch field {
		case 1:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			m.BatteryLevel = uint32(v)
		case 2, 3, 4:
			v, err := r.fixed32(field)
			if err != nil {
				return nil, false
			}
			f := math.Float32frombits(v)
			switch field {
			case 2:
				m.Voltage = f
			case 3:
				m.ChannelUtilization = f
			case 4:
				m.AirUtilTx = f
			}
		case 5:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			m.UptimeSeconds = uint32(v)
		default:
			if err := r.skip(field, wt); err != nil {
				return nil, false
			}
		}
	}
}

func decodeEnvironmentMetrics(buf []byte) (*EnvironmentMetrics, bool) {
	m := &EnvironmentMetrics{}
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return nil, false
		}
		if !ok {
			return m, true
		}
		switch field {
		case 1, 2, 3, 4, 5:
			v, err := r.fixed32(field)
			if err != nil {
				return nil, false
			}
			f := math.Float32frombits(v)
			switch field {
			case 1:
				m.Temperature = f
			case 2:
				m.RelativeHumidity = f
			case 3:
				m.BarometricPressure = f
			case 4:
				m.GasResistance = f
			case 5:
				m.Voltage = f
			}
		case 7:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			m.IAQ = uint32(v)
		default:
			if err := r.skip(field, wt); err != nil {
				return nil, false
			}
		}
	}
}

func decodeNeighborInfo(buf []byte) (*NeighborInfo, bool) {
	n := &NeighborInfo{}
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return nil, false
		}
		if !ok {
			return n, true
		}
		switch field {
		case 1:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			n.NodeID = uint32(v)
		case 2:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			n.LastSentByID = uint32(v)
		case 3:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			n.NodeBroadcastIntervalSecs = uint32(v)
		case 4:
			b, err := r.bytes(field)
			if err != nil {
				return nil, false
			}
			nb, ok := decodeNeighbor(b)
			if !ok {
				return nil, false
			}
			n.Neighbors = append(n.Neighbors, nb)
		default:
			if err := r.skip(field, wt); err != nil {
				return nil, false
			}
		}
	}
}

func decodeNeighbor(buf []byte) (Neighbor, bool) {
	var n Neighbor
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return n, false
		}
		if !ok {
			return n, true
		}
		switch field {
		case 1:
			v, err := r.varint(field)
			if err != nil {
				return n, false
			}
			n.NodeID = uint32(v)
		case 2:
			v, err := r.fixed32(field)
			if err != nil {
				return n, false
			}
			n.Snr = math.Float32frombits(v)
		default:
			if err := r.skip(field, wt); err != nil {
				return n, false
			}
		}
	}
}

func decodeMapReport(buf []byte) (*MapReport, bool) {
	m := &MapReport{}
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return nil, false
		}
		if !ok {
			m.Latitude = float64(m.LatitudeI) / 1e7
			m.Longitude = float64(m.LongitudeI) / 1e7
			return m, true
		}
		switch field {
		case 1, 2, 5:
			b, err := r.bytes(field)
			if err != nil {
				return nil, false
			}
			switch field {
			case 1:
				m.LongName = string(b)
			case 2:
				m.ShortName = string(b)
			case 5:
				m.FirmwareVersion = string(b)
			}
		case 3, 4, 6, 7, 11, 12, 13:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			switch field {
			case 3:
				m.Role = uint32(v)
			case 4:
				m.HwModel = uint32(v)
			case 6:
				m.Region = uint32(v)
			case 7:
				m.ModemPreset = uint32(v)
			case 11:
				m.Altitude = int32(v)
			case 12:
				m.PositionPrecision = uint32(v)
			case 13:
				m.NumOnlineLocalNodes = uint32(v)
			}
		case 8:
			v, err := r.varint(field)
			if err != nil {
				return nil, false
			}
			m.HasDefaultChannel = v != 0
		case 9, 10:
			v, err := r.fixed32(field)
			if err != nil {
				return nil, false
			}
			if field == 9 {
				m.LatitudeI = int32(v)
			} else {
				m.LongitudeI = int32(v)
			}
		default:
			if err := r.skip(field, wt); err != nil {
				return nil, false
			}
		}
	}
}

func decodeAdmin(buf []byte) (*AdminMessage, bool) {
	a := &AdminMessage{}
	r := &reader{buf: buf}
	for {
		field, wt, ok, err := r.tag()
		if err != nil {
			return nil, false
		}
		if !ok {
			return a, true
		}
		if field == 101 && wt == wireBytes {
			b, err := r.bytes(field)
			if err != nil {
				return nil, false
			}
			a.SessionPasskey = b
			continue
		}
		if a.VariantField == 0 {
			a.VariantField = uint32(field)
		}
		if err := r.skip(field, wt); err != nil {
			return nil, false
		}
	}
}
