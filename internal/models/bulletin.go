package models

import (
	"strconv"
	"strings"
	"time"
)

// Header holds the four fixed-width fields that open a bulletin
type Header struct {
	StationID      string `json:"station_id"`      // METCMQ
	LatLon         string `json:"lat_lon"`         // LaLaLaLoLoLo
	DateTime       string `json:"date_time"`       // YYGoGoGoG
	HeightPressure string `json:"height_pressure"` // hhhPdPdPd
}

// Fields returns the header in wire order
func (h Header) Fields() [HeaderFieldCount]string {
	return [HeaderFieldCount]string{h.StationID, h.LatLon, h.DateTime, h.HeightPressure}
}

// Bulletin is one meteorological message: a header and 32 zone payloads.
// It is a value type; copies never share zone storage.
type Bulletin struct {
	Header       Header            `json:"header"`
	Zones        [ZoneCount]string `json:"zones"`
	IssuedAt     time.Time         `json:"issued_at,omitempty"`
	ReceivedAt   time.Time         `json:"received_at,omitempty"`
	Source       string            `json:"source,omitempty"`
	MissingZones int               `json:"missing_zones,omitempty"`
}

// Zone returns the payload held in slot i, or "" when i is out of range
func (b *Bulletin) Zone(i int) string {
	if i < 0 || i >= ZoneCount {
		return ""
	}
	return b.Zones[i]
}

// Partial reports whether the bulletin was accepted with missing trailing zones
func (b *Bulletin) Partial() bool {
	return b.MissingZones > 0
}

// Validate applies the authoring rules: every header field exactly 6 characters,
// every non-empty zone exactly 16 digits
func (b *Bulletin) Validate() error {
	tags := [HeaderFieldCount]string{TagStationID, TagLatLon, TagDateTime, TagHeightPressure}
	for i, v := range b.Header.Fields() {
		if len(v) != HeaderFieldLen {
			return &ValidationError{Field: tags[i], Value: v, Msg: "must be exactly 6 characters"}
		}
	}

	for i, z := range b.Zones {
		if z == "" {
			continue
		}
		if len(z) != ZonePayloadLen || !isDigits(z) {
			return &ValidationError{Field: ZoneTag(i), Value: z, Msg: "must be exactly 16 digits"}
		}
	}

	return nil
}

// ZoneTag names zone slot i the way the archive columns do (zona0..zona31)
func ZoneTag(i int) string {
	return "zona" + strconv.Itoa(i)
}

// EncodeBulletin renders b in wire form: a metadata line with the current time,
// then the header fields and the 32 zones, one per line
func EncodeBulletin(b Bulletin) string {
	var sb strings.Builder
	sb.Grow(len(MetadataPrefix) + 32 + BulletinFieldCount*(ZonePayloadLen+1))

	sb.WriteString(MetadataPrefix)
	sb.WriteString(" - ")
	sb.WriteString(clock.Now().Format(MetadataTimeLayout))
	sb.WriteByte('\n')

	for _, f := range b.Header.Fields() {
		sb.WriteString(f)
		sb.WriteByte('\n')
	}
	for i, z := range b.Zones {
		sb.WriteString(z)
		if i < ZoneCount-1 {
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

// DecodeBulletin splits wire lines into a bulletin. It needs all 36 fields;
// lines beyond them are ignored. Field widths are not checked here.
func DecodeBulletin(lines []string) (Bulletin, error) {
	return decodeLines(lines, false)
}

// DecodeBulletinPartial accepts a bulletin whose trailing zones are missing.
// The header is still required; absent zones are left empty and counted in MissingZones.
func DecodeBulletinPartial(lines []string) (Bulletin, error) {
	return decodeLines(lines, true)
}

// ParseDatagram decodes one datagram payload
func ParseDatagram(data []byte, allowPartial bool) (Bulletin, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return decodeLines(strings.Split(text, "\n"), allowPartial)
}

func decodeLines(lines []string, allowPartial bool) (Bulletin, error) {
	// Blank lines ahead of the first field are padding; after it every line is positional
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}

	var b Bulletin

	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), MetadataPrefix) {
		b.IssuedAt = parseMetadataTime(strings.TrimSpace(lines[0]))
		lines = lines[1:]
	}

	want := BulletinFieldCount
	if allowPartial {
		want = HeaderFieldCount
	}
	if len(lines) < want {
		return Bulletin{}, &FormatError{Reason: ReasonFieldCount, Got: len(lines), Want: want}
	}

	// Values are fixed width and may carry spaces or colons; only line endings and labels go
	fields := make([]string, 0, BulletinFieldCount)
	for i, l := range lines {
		if i == BulletinFieldCount {
			break
		}
		fields = append(fields, stripLabel(strings.TrimRight(l, "\r\n"), i))
	}

	b.Header = Header{
		StationID:      fields[0],
		LatLon:         fields[1],
		DateTime:       fields[2],
		HeightPressure: fields[3],
	}

	zones := fields[HeaderFieldCount:]
	for i := 0; i < ZoneCount; i++ {
		if i < len(zones) {
			b.Zones[i] = zones[i]
		} else {
			b.MissingZones++
		}
	}

	return b, nil
}

// stripLabel drops the authoring form label for line position pos, e.g. "METCMQ: " or "Zona 3: ".
// Anything else is returned unchanged.
func stripLabel(field string, pos int) string {
	if pos < HeaderFieldCount {
		for _, label := range headerLabels[pos] {
			if rest, ok := strings.CutPrefix(field, label+":"); ok {
				return strings.TrimPrefix(rest, " ")
			}
		}
		return field
	}

	rest, ok := strings.CutPrefix(field, LabelZonePrefix)
	if !ok {
		return field
	}
	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	if n == 0 || n == len(rest) || rest[n] != ':' {
		return field
	}
	return strings.TrimPrefix(rest[n+1:], " ")
}

func parseMetadataTime(line string) time.Time {
	idx := strings.LastIndex(line, " - ")
	if idx < 0 {
		return time.Time{}
	}
	t, err := time.ParseInLocation(MetadataTimeLayout, strings.TrimSpace(line[idx+3:]), clock.Now().Location())
	if err != nil {
		return time.Time{}
	}
	return t
}
