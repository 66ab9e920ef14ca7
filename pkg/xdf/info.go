package xdf

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
)

// StreamInfo is the metadata header of one stream within a container. Desc
// holds the flat key/value description tree written by the acquisition
// layer (device_id, sensor_ids, data_version, column_names,
// column_descriptions, plus free-form extension fields).
type StreamInfo struct {
	Name          string            `json:"name"`
	Type          string            `json:"type,omitempty"`
	Channels      int               `json:"channel_count"`
	NominalSRate  float64           `json:"nominal_srate"`
	ChannelFormat Format            `json:"channel_format"`
	SourceID      string            `json:"source_id,omitempty"`
	Desc          map[string]string `json:"desc,omitempty"`
}

// ChannelCount implements the stream description contract.
func (si *StreamInfo) ChannelCount() int { return si.Channels }

// AppendDesc implements the stream description contract, mirroring the
// underlying streaming library's idiom of building up a description tree.
func (si *StreamInfo) AppendDesc(key, value string) {
	if si.Desc == nil {
		si.Desc = make(map[string]string)
	}
	si.Desc[key] = value
}

// DescValue looks up one description entry.
func (si *StreamInfo) DescValue(key string) (string, bool) {
	v, ok := si.Desc[key]
	return v, ok
}

// Clone returns a deep copy of the info.
func (si StreamInfo) Clone() StreamInfo {
	out := si
	if si.Desc != nil {
		out.Desc = make(map[string]string, len(si.Desc))
		for k, v := range si.Desc {
			out.Desc[k] = v
		}
	}
	return out
}

type xmlDescEntry struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlDesc struct {
	Entries []xmlDescEntry `xml:",any"`
}

type xmlInfo struct {
	XMLName       xml.Name `xml:"info"`
	Name          string   `xml:"name"`
	Type          string   `xml:"type,omitempty"`
	ChannelCount  int      `xml:"channel_count"`
	NominalSRate  float64  `xml:"nominal_srate"`
	ChannelFormat string   `xml:"channel_format"`
	SourceID      string   `xml:"source_id,omitempty"`
	Desc          *xmlDesc `xml:"desc"`
}

// encodeInfoXML serializes a StreamInfo to the XML header form. Description
// entries are written in sorted key order so output is deterministic.
func encodeInfoXML(si StreamInfo) ([]byte, error) {
	out := xmlInfo{
		Name:          si.Name,
		Type:          si.Type,
		ChannelCount:  si.Channels,
		NominalSRate:  si.NominalSRate,
		ChannelFormat: string(si.ChannelFormat),
		SourceID:      si.SourceID,
	}
	if len(si.Desc) > 0 {
		keys := make([]string, 0, len(si.Desc))
		for k := range si.Desc {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		desc := &xmlDesc{}
		for _, k := range keys {
			desc.Entries = append(desc.Entries, xmlDescEntry{
				XMLName: xml.Name{Local: k},
				Value:   si.Desc[k],
			})
		}
		out.Desc = desc
	}
	b, err := xml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("xdf: encode stream info: %w", err)
	}
	return b, nil
}

// decodeInfoXML parses the XML header of a stream.
func decodeInfoXML(data []byte) (StreamInfo, error) {
	var in xmlInfo
	decoder := xml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&in); err != nil {
		return StreamInfo{}, fmt.Errorf("xdf: decode stream info: %w", err)
	}

	si := StreamInfo{
		Name:          in.Name,
		Type:          in.Type,
		Channels:      in.ChannelCount,
		NominalSRate:  in.NominalSRate,
		ChannelFormat: Format(in.ChannelFormat),
		SourceID:      in.SourceID,
	}
	if !si.ChannelFormat.valid() {
		return StreamInfo{}, fmt.Errorf("xdf: stream %q declares unknown channel format %q", si.Name, in.ChannelFormat)
	}
	if in.Desc != nil {
		si.Desc = make(map[string]string, len(in.Desc.Entries))
		for _, e := range in.Desc.Entries {
			si.Desc[e.XMLName.Local] = e.Value
		}
	}
	return si, nil
}
