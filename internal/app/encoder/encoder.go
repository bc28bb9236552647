package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// MediaInfo is the probe result. Width and Height are display dimensions:
// coded dimensions with rotation metadata already applied, as the frame is
// actually rendered.
type MediaInfo struct {
	DurationSeconds float64
	Width           int
	Height          int
}

// Encoder is the external encoding collaborator.
type Encoder interface {
	// Probe returns duration and display dimensions of the source.
	Probe(ctx context.Context, path string) (*MediaInfo, error)

	// Segment splits the source into fixed-duration pieces in outputDir and
	// returns their paths in order. When crop is non-nil the video stream is
	// re-encoded with the crop applied; otherwise streams are copied.
	Segment(ctx context.Context, path, outputDir string, segmentDuration int, crop *CropRect) ([]string, error)
}

// UpstreamError carries the raw diagnostic text of a nonzero encoder exit.
// Callers are responsible for truncating before persistence or display.
type UpstreamError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Op, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// SegmentFilePattern is the ffmpeg output template for segment files.
const SegmentFilePattern = "segment_%03d.mp4"

// FFmpegEncoder shells out to ffmpeg/ffprobe.
type FFmpegEncoder struct {
	ffmpegPath  string
	ffprobePath string
}

func NewFFmpegEncoder() *FFmpegEncoder {
	return &FFmpegEncoder{ffmpegPath: "ffmpeg", ffprobePath: "ffprobe"}
}

// CheckInstalled verifies ffmpeg is on PATH.
func (e *FFmpegEncoder) CheckInstalled() bool {
	return exec.Command(e.ffmpegPath, "-version").Run() == nil
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		SideDataList []struct {
			Rotation int `json:"rotation"`
		} `json:"side_data_list"`
		Tags struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (e *FFmpegEncoder) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, &UpstreamError{Op: "ffprobe", Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	return mediaInfoFromProbe(&probed)
}

// mediaInfoFromProbe maps parsed ffprobe output to display-oriented media
// info: coded dimensions are swapped when rotation metadata says the frame is
// rendered sideways.
func mediaInfoFromProbe(probed *ffprobeOutput) (*MediaInfo, error) {
	info := &MediaInfo{}
	if probed.Format.Duration != "" {
		var err error
		info.DurationSeconds, err = strconv.ParseFloat(strings.TrimSpace(probed.Format.Duration), 64)
		if err != nil {
			return nil, fmt.Errorf("parse duration %q: %w", probed.Format.Duration, err)
		}
	}

	for _, stream := range probed.Streams {
		if stream.CodecType != "video" {
			continue
		}
		info.Width, info.Height = stream.Width, stream.Height

		// side_data_list is the modern location; older ffprobe builds put a
		// rotate tag on the stream instead.
		rotation := 0
		if len(stream.SideDataList) > 0 {
			rotation = stream.SideDataList[0].Rotation
		} else if stream.Tags.Rotate != "" {
			rotation, _ = strconv.Atoi(stream.Tags.Rotate)
		}
		if rotation < 0 {
			rotation = -rotation
		}
		if rotation%180 == 90 {
			info.Width, info.Height = info.Height, info.Width
		}
		break
	}

	return info, nil
}

func (e *FFmpegEncoder) Segment(ctx context.Context, path, outputDir string, segmentDuration int, crop *CropRect) ([]string, error) {
	outputPattern := filepath.Join(outputDir, SegmentFilePattern)

	var args []string
	if crop != nil {
		// Crop requires a re-encode; CRF 18 preserves quality, audio is
		// copied unchanged.
		args = []string{
			"-i", path,
			"-vf", crop.Filter(),
			"-c:v", "libx264", "-preset", "fast", "-crf", "18",
			"-c:a", "copy",
			"-map", "0:v:0", "-map", "0:a?",
			"-segment_time", strconv.Itoa(segmentDuration),
			"-f", "segment", "-reset_timestamps", "1",
			outputPattern,
		}
	} else {
		// Stream copy: fast, no quality loss. Segment boundaries follow
		// keyframe alignment, so actual durations may drift slightly from
		// segmentDuration.
		args = []string{
			"-i", path,
			"-c", "copy", "-map", "0",
			"-segment_time", strconv.Itoa(segmentDuration),
			"-f", "segment", "-reset_timestamps", "1",
			outputPattern,
		}
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &UpstreamError{Op: "ffmpeg segment", Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	segments, err := filepath.Glob(filepath.Join(outputDir, "segment_*.mp4"))
	if err != nil {
		return nil, err
	}
	sort.Strings(segments)
	return segments, nil
}
