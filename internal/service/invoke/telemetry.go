package invoke

import (
	"context"
	"errors"
	"os"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
	"github.com/oshokin/vcpkg-artifacts/internal/logger"
	"github.com/oshokin/vcpkg-artifacts/internal/metrics"
)

// Tracker receives harvested metrics.
type Tracker interface {
	TrackString(name metrics.StringMetric, value string)
}

// Harvester forwards telemetry written by the delegate. It never fails.
type Harvester struct {
	tracker  Tracker
	readFile func(name string) ([]byte, error)
}

// NewHarvester creates a Harvester reporting to tracker.
func NewHarvester(tracker Tracker) *Harvester {
	return &Harvester{
		tracker:  tracker,
		readFile: os.ReadFile,
	}
}

// Harvest reads the telemetry file at path and tracks its string fields.
// Every failure is logged at debug level and otherwise ignored.
func (h *Harvester) Harvest(ctx context.Context, path string) {
	if path == "" {
		return
	}

	ctx = logger.WithKV(ctx, "telemetry_file", path)

	contents, err := h.readFile(path)
	if err != nil {
		logger.DebugKV(ctx, "Unable to read telemetry file", "error", err)
		return
	}

	record, err := ParseTelemetry(contents)
	if err != nil {
		logger.DebugKV(ctx, "Unable to parse telemetry file", "error", err)
		return
	}

	if record.AcquiredArtifacts != nil {
		h.tracker.TrackString(metrics.AcquiredArtifacts, *record.AcquiredArtifacts)
	} else {
		logger.Debugf(ctx, "Telemetry field %s is missing or not a string", metrics.AcquiredArtifacts)
	}

	if record.ActivatedArtifacts != nil {
		h.tracker.TrackString(metrics.ActivatedArtifacts, *record.ActivatedArtifacts)
	} else {
		logger.Debugf(ctx, "Telemetry field %s is missing or not a string", metrics.ActivatedArtifacts)
	}
}

var errTelemetryNotObject = errors.New("telemetry must be a JSON object")

// ParseTelemetry decodes a telemetry JSON object. Fields that are absent or
// not strings are left nil.
func ParseTelemetry(contents []byte) (domain.TelemetryRecord, error) {
	var value structpb.Value
	if err := protojson.Unmarshal(contents, &value); err != nil {
		return domain.TelemetryRecord{}, err
	}

	object := value.GetStructValue()
	if object == nil {
		return domain.TelemetryRecord{}, errTelemetryNotObject
	}

	fields := object.GetFields()

	return domain.TelemetryRecord{
		AcquiredArtifacts:  stringField(fields, string(metrics.AcquiredArtifacts)),
		ActivatedArtifacts: stringField(fields, string(metrics.ActivatedArtifacts)),
	}, nil
}

func stringField(fields map[string]*structpb.Value, key string) *string {
	text, ok := fields[key].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil
	}

	value := text.StringValue

	return &value
}
