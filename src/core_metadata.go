package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	mp4 "github.com/abema/go-mp4"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"github.com/spf13/afero"
	"k8s.io/klog/v2"
)

// exifDateLayout is the strict YYYY:MM:DD HH:MM:SS EXIF timestamp layout
const exifDateLayout = "2006:01:02 15:04:05"

// TagExtractor decodes the raw tag set of one metadata category
type TagExtractor interface {
	Extract(fs afero.Fs, path string) (TagSet, error)
}

// defaultExtractors returns the extractor used for each media category
func defaultExtractors() map[MediaKind]TagExtractor {
	return map[MediaKind]TagExtractor{
		KindPhoto: exifExtractor{},
		KindVideo: mp4Extractor{},
	}
}

// exifExtractor reads EXIF fields and an embedded XMP city from photos
type exifExtractor struct{}

func (exifExtractor) Extract(fs afero.Fs, path string) (TagSet, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	tags := make(TagSet)
	if city := findXMPCity(f); city != "" {
		tags[TagCity] = TagValue{Text: city}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return tags, fmt.Errorf("seek: %w", err)
	}

	x, err := exif.Decode(f)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return tags, fmt.Errorf("decode exif: %w", err)
	}

	if err := x.Walk(tagCollector(tags)); err != nil {
		return tags, fmt.Errorf("walk exif: %w", err)
	}
	return tags, nil
}

// tagCollector copies every EXIF field into a TagSet
type tagCollector TagSet

func (c tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	v := TagValue{Raw: tag.Val}

	switch tag.Format() {
	case tiff.StringVal:
		if s, err := tag.StringVal(); err == nil {
			v.Text = strings.TrimSpace(strings.TrimRight(s, "\x00"))
		}
	case tiff.RatVal:
		for i := 0; i < int(tag.Count); i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				break
			}
			v.Rats = append(v.Rats, Rational{Num: num, Den: den})
		}
	}

	c[string(name)] = v
	return nil
}

// xmpScanLimit bounds how much of a file head is searched for an XMP packet
const xmpScanLimit = 256 * 1024

var (
	xmpCityAttr = regexp.MustCompile(`photoshop:City="([^"]*)"`)
	xmpCityElem = regexp.MustCompile(`<photoshop:City>([^<]*)</photoshop:City>`)
)

// findXMPCity returns the XMP photoshop:City value from the file head
func findXMPCity(r io.Reader) string {
	head, err := io.ReadAll(io.LimitReader(r, xmpScanLimit))
	if err != nil || len(head) == 0 {
		return ""
	}
	for _, re := range []*regexp.Regexp{xmpCityAttr, xmpCityElem} {
		if m := re.FindSubmatch(head); m != nil {
			if city := strings.TrimSpace(string(m[1])); city != "" {
				return city
			}
		}
	}
	return ""
}

// appleEpochOffset is the number of seconds between 1904-01-01 and 1970-01-01
const appleEpochOffset = 2082844800

// isoBaseMediaExtensions use the ISO BMFF container with a moov/mvhd box
var isoBaseMediaExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
}

// mp4Extractor reads the container creation time of MP4/MOV files
type mp4Extractor struct{}

func (mp4Extractor) Extract(fs afero.Fs, path string) (TagSet, error) {
	tags := make(TagSet)
	if !isoBaseMediaExtensions[strings.ToLower(filepath.Ext(path))] {
		return tags, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	boxes, err := mp4.ExtractBoxesWithPayload(f, nil, []mp4.BoxPath{
		{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()},
	})
	if err != nil {
		return tags, fmt.Errorf("read mp4 structure: %w", err)
	}

	for _, box := range boxes {
		mvhd, ok := box.Payload.(*mp4.Mvhd)
		if !ok {
			continue
		}
		created := mvhd.GetCreationTime()
		if created == 0 {
			continue
		}
		t := time.Unix(int64(created)-appleEpochOffset, 0)
		if t.Year() < 1970 {
			continue
		}
		tags[TagDateTimeOriginal] = TagValue{Text: t.In(time.Local).Format(exifDateLayout)}
		break
	}
	return tags, nil
}

// MetadataResolver turns a raw tag set into CaptureInfo
type MetadataResolver struct {
	fs       afero.Fs
	geocoder Geocoder
}

// NewMetadataResolver returns a resolver; geocoder may be nil
func NewMetadataResolver(fs afero.Fs, geocoder Geocoder) *MetadataResolver {
	return &MetadataResolver{fs: fs, geocoder: geocoder}
}

// Resolve never fails: missing or bad tags fall back to file times and
// the Unknown camera sentinel
func (r *MetadataResolver) Resolve(ctx context.Context, path string, tags TagSet) CaptureInfo {
	info := CaptureInfo{
		CameraBrand: cameraField(tags, TagMake),
		CameraModel: cameraField(tags, TagModel),
	}

	if date, ok := captureDate(tags); ok {
		info.CaptureDate = date
	} else {
		info.CaptureDate = r.modTime(path)
		info.FromModTime = true
		klog.V(2).Infof("No usable capture date in %s, using modification time", path)
	}

	info.City = r.city(ctx, path, tags)
	return info
}

// captureDate prefers the original capture tag, then the digitized tag
func captureDate(tags TagSet) (time.Time, bool) {
	for _, name := range []string{TagDateTimeOriginal, TagDateTimeDigitized} {
		s, ok := tags.Text(name)
		if !ok {
			continue
		}
		if t, err := time.ParseInLocation(exifDateLayout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func cameraField(tags TagSet, name string) string {
	if s, ok := tags.Text(name); ok {
		return s
	}
	return unknownCamera
}

// modTime is the terminal date fallback
func (r *MetadataResolver) modTime(path string) time.Time {
	info, err := r.fs.Stat(path)
	if err != nil {
		// Ultimate fallback to current time
		return time.Now()
	}
	return info.ModTime()
}

func (r *MetadataResolver) city(ctx context.Context, path string, tags TagSet) string {
	if city, ok := tags.Text(TagCity); ok {
		return city
	}
	if r.geocoder == nil {
		return ""
	}

	lat, lon, ok := gpsCoordinates(tags)
	if !ok {
		return ""
	}

	city, err := r.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		klog.Warningf("Reverse geocoding %s (%f, %f) failed: %v", path, lat, lon, err)
		return ""
	}
	return city
}

// gpsCoordinates converts the GPS tags to signed decimal degrees. All four
// tags must be present; the hemisphere is never guessed.
func gpsCoordinates(tags TagSet) (lat, lon float64, ok bool) {
	latRef, ok1 := tags.Text(TagGPSLatitudeRef)
	lonRef, ok2 := tags.Text(TagGPSLongitudeRef)
	if !ok1 || !ok2 {
		return 0, 0, false
	}

	if lat, ok = tagDegrees(tags, TagGPSLatitude); !ok {
		return 0, 0, false
	}
	if lon, ok = tagDegrees(tags, TagGPSLongitude); !ok {
		return 0, 0, false
	}

	switch strings.ToUpper(latRef) {
	case "N":
	case "S":
		lat = -lat
	default:
		return 0, 0, false
	}

	switch strings.ToUpper(lonRef) {
	case "E":
	case "W":
		lon = -lon
	default:
		return 0, 0, false
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

// tagDegrees reads a coordinate stored either as three rationals or, as
// some phones write it, as a comma separated string
func tagDegrees(tags TagSet, name string) (float64, bool) {
	if rats, ok := tags.Rationals(name); ok {
		return dmsToDecimal(rats)
	}
	if s, ok := tags.Text(name); ok {
		return parseDegreesString(s)
	}
	return 0, false
}

// parseDegreesString accepts "d,m,s" and the split fixed-point form
// "d,dfrac,m,mfrac,s,sfrac"
func parseDegreesString(s string) (float64, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	switch len(parts) {
	case 3:
	case 6:
		parts = []string{
			parts[0] + "." + parts[1],
			parts[2] + "." + parts[3],
			parts[4] + "." + parts[5],
		}
	default:
		return 0, false
	}

	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || f < 0 {
			return 0, false
		}
		v[i] = f
	}
	return v[0] + v[1]/60 + v[2]/3600, true
}

// dmsToDecimal computes deg + min/60 + sec/3600
func dmsToDecimal(parts []Rational) (float64, bool) {
	if len(parts) < 3 {
		return 0, false
	}
	var v [3]float64
	for i := range v {
		f, ok := parts[i].Float()
		if !ok {
			return 0, false
		}
		v[i] = f
	}
	return v[0] + v[1]/60 + v[2]/3600, true
}
