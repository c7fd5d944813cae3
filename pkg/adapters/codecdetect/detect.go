// Package codecdetect identifies the container and video codec of a finished file.
package codecdetect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecMPEG4   Codec = "mpeg4"
	CodecMJPEG   Codec = "mjpeg"
	CodecUnknown Codec = "unknown"
)

// Container is a file container format.
type Container string

const (
	ContainerMP4      Container = "mp4"
	ContainerAVI      Container = "avi"
	ContainerMatroska Container = "matroska"
	ContainerUnknown  Container = "unknown"
)

// ErrNoVideoTrack is returned when an MP4 file has no recognizable video track.
var ErrNoVideoTrack = errors.New("codecdetect: no video track found")

// Info describes a probed file.
type Info struct {
	Container Container
	Codec     Codec
}

var (
	ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}
	riffMagic = []byte("RIFF")
	aviMagic  = []byte("AVI ")
)

// Probe sniffs the container from the file header and, for MP4, reads the
// sample description of the first video track.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{ContainerUnknown, CodecUnknown}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 12)
	n, _ := io.ReadFull(f, header)
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, riffMagic) && len(header) >= 12 && bytes.Equal(header[8:12], aviMagic):
		return Info{ContainerAVI, CodecMJPEG}, nil
	case bytes.HasPrefix(header, ebmlMagic):
		return Info{ContainerMatroska, CodecUnknown}, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Info{ContainerUnknown, CodecUnknown}, fmt.Errorf("seek: %w", err)
	}
	codec, err := DetectFromReader(f)
	if err != nil {
		return Info{ContainerUnknown, CodecUnknown}, err
	}
	return Info{ContainerMP4, codec}, nil
}

// DetectFromReader detects the video codec of an MP4 stream.
func DetectFromReader(reader io.ReadSeeker) (Codec, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return CodecUnknown, fmt.Errorf("decode mp4: %w", err)
	}
	return detectFromMP4File(mp4File)
}

// DetectFromBytes detects the video codec from MP4 data bytes.
func DetectFromBytes(data []byte) (Codec, error) {
	return DetectFromReader(bytes.NewReader(data))
}

func detectFromMP4File(mp4File *mp4.File) (Codec, error) {
	var moov *mp4.MoovBox
	switch {
	case mp4File.Moov != nil:
		moov = mp4File.Moov
	case mp4File.Init != nil:
		moov = mp4File.Init.Moov
	}
	if moov == nil {
		return CodecUnknown, ErrNoVideoTrack
	}

	for _, trak := range moov.Traks {
		if codec, ok := trackCodec(trak); ok {
			return codec, nil
		}
	}
	return CodecUnknown, ErrNoVideoTrack
}

func trackCodec(trak *mp4.TrakBox) (Codec, bool) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
		return CodecUnknown, false
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown, false
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		if codec := codecForSampleEntry(child.Type()); codec != CodecUnknown {
			return codec, true
		}
	}
	return CodecUnknown, true
}

func codecForSampleEntry(boxType string) Codec {
	switch boxType {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "mp4v":
		return CodecMPEG4
	case "jpeg", "mjpa":
		return CodecMJPEG
	}
	return CodecUnknown
}
