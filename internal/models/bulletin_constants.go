package models

// Bulletin layout constants
const (
	// ZoneCount is the number of altitude zones carried by every bulletin
	ZoneCount = 32

	// HeaderFieldCount is the number of header lines preceding the zones
	HeaderFieldCount = 4

	// BulletinFieldCount is the number of logical lines in a complete bulletin
	BulletinFieldCount = HeaderFieldCount + ZoneCount // 36

	// HeaderFieldLen is the fixed width of each header field
	HeaderFieldLen = 6

	// ZonePayloadLen is the fixed width of a zone payload
	ZonePayloadLen = 16

	// MaxDatagramSize bounds one encoded bulletin on the wire
	MaxDatagramSize = 4096

	// MetadataPrefix starts the optional first line carrying the send time
	MetadataPrefix = "Boletim STANAG 4082"

	// MetadataTimeLayout is the layout of the send time in the metadata line
	MetadataTimeLayout = "2006-01-02 15:04:05"
)

// Header field tags, as used by the archive columns and the authoring form
const (
	TagStationID      = "METCMQ"
	TagLatLon         = "LaLaLaLoLoLo"
	TagDateTime       = "YYGoGoGoG"
	TagHeightPressure = "hhhPdPdPd"
)

// Line labels the authoring form puts in front of each value ("Zona 3: 0031...")
const (
	LabelLatLon         = "Latitude/Longitude"
	LabelDateTime       = "Data e Duração"
	LabelHeightPressure = "Altura e Pressão MDP"
	LabelZonePrefix     = "Zona "
)

// headerLabels lists the accepted labels per header position
var headerLabels = [HeaderFieldCount][]string{
	{TagStationID},
	{LabelLatLon, TagLatLon},
	{LabelDateTime, TagDateTime},
	{LabelHeightPressure, TagHeightPressure},
}

// zoneField is a fixed-offset subfield of a zone payload
type zoneField struct {
	name       string
	start, end int
}

var (
	zoneNumberField    = zoneField{name: "zone_number", start: 0, end: 2}
	windDirectionField = zoneField{name: "wind_direction", start: 2, end: 5}
	windSpeedField     = zoneField{name: "wind_speed", start: 5, end: 8}
	temperatureField   = zoneField{name: "temperature", start: 8, end: 12}
	pressureField      = zoneField{name: "pressure", start: 12, end: 16}

	zoneFields = []zoneField{
		zoneNumberField,
		windDirectionField,
		windSpeedField,
		temperatureField,
		pressureField,
	}
)
