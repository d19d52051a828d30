//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata: a
//  user-agent fingerprint, IP + geolocation, referrer, UTM parameters, and
//  a timestamp.  Lead rows persist a snapshot of this struct, so it stays
//  inert: no pointers to database handles or large buffers, safe to log or
//  JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup)
//

package requestinfo

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties stored with each lead.
type UA struct {
	Raw       string // Entire User-Agent header
	Browser   string // "Chrome", "Firefox", "Safari", …
	Version   string // "125.0.6422"
	OS        string // "macOS", "Windows", "Android", "iOS", …
	OSVersion string // "14.5", "11", "10.0"
	Device    string // "Desktop", "Phone", "Tablet", …
	IsBot     bool
}

// Geo holds IP-based geolocation hints.  Best-effort: fields may be empty
// when the database has no match or no reader is configured.
type Geo struct {
	IP         net.IP // Client address (left-most public XFF hop)
	CountryISO string // "US", "CA", "FR", …
	City       string // "Chicago", "Paris", …
}

// UTM carries the standard campaign-attribution query parameters.  Absent
// parameters stay empty strings; leads persist whatever arrived.
type UTM struct {
	Source   string
	Medium   string
	Campaign string
	Term     string
	Content  string
}

// RequestInfo is attached to the request context by the Enrich middleware
// and snapshotted onto every lead row.
type RequestInfo struct {
	UA        UA
	Geo       Geo
	Referrer  string
	UTM       UTM
	URL       *url.URL // Pointer copy, safe to dereference read-only
	Timestamp time.Time
}

//
//  -----------------------------
//  Package-level state
//  -----------------------------
//

// geoReader is a singleton MaxMind handle.  Safe for concurrent reads,
// which is all we ever perform.  Nil when geo lookup is disabled.
var geoReader *geoip2.Reader

// InitGeo opens the GeoLite2-City database at startup.  Callers treat an
// error as "run without geo"; every lookup then degrades to IP-only.
func InitGeo(dbPath string) error {
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return err
	}
	geoReader = r
	return nil
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich, or nil if
// the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// parseUA converts a raw header into our UA struct using uasurfer.
func parseUA(uaHeader string) UA {
	u := surfer.Parse(uaHeader)

	osName := strings.TrimPrefix(u.OS.Name.String(), "OS")
	if osName == "MacOSX" {
		osName = "macOS"
	}

	return UA{
		Raw:       uaHeader,
		Browser:   strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:   trimVersion(u.Browser.Version),
		OS:        osName,
		OSVersion: trimVersion(u.OS.Version),
		Device:    deviceTypeToString(u.DeviceType),
		IsBot:     u.IsBot(),
	}
}

// trimVersion builds "major.minor.patch" and removes trailing ".0" parts.
func trimVersion(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	}
	if v.Minor != 0 {
		return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
	}
	return strconv.Itoa(v.Major)
}

// deviceTypeToString maps uasurfer.DeviceType to a user-friendly string.
func deviceTypeToString(dt surfer.DeviceType) string {
	switch dt {
	case surfer.DeviceComputer:
		return "Desktop"
	case surfer.DevicePhone:
		return "Phone"
	case surfer.DeviceTablet:
		return "Tablet"
	case surfer.DeviceConsole:
		return "Console"
	case surfer.DeviceWearable:
		return "Wearable"
	case surfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}

// parseUTM pulls the five standard utm_* parameters from a query string.
func parseUTM(q url.Values) UTM {
	return UTM{
		Source:   q.Get("utm_source"),
		Medium:   q.Get("utm_medium"),
		Campaign: q.Get("utm_campaign"),
		Term:     q.Get("utm_term"),
		Content:  q.Get("utm_content"),
	}
}

// lookupGeo returns best-effort Geo data using the global reader.
func lookupGeo(ip net.IP) Geo {
	if geoReader == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := geoReader.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}
