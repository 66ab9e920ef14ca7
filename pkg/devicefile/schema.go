package devicefile

// envelopeSchema constrains every device file written by this package.
// Validation runs against the canonicalized bytes immediately before they
// reach disk, so a malformed envelope can never be half-published.
const envelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Device file envelope",
  "type": "object",
  "required": ["marker", "device_data"],
  "additionalProperties": false,
  "properties": {
    "marker": {
      "oneOf": [{"type": "null"}, {"$ref": "#/$defs/stream"}]
    },
    "device_data": {"$ref": "#/$defs/stream"}
  },
  "$defs": {
    "stream": {
      "type": "object",
      "required": ["info", "time_stamps"],
      "properties": {
        "info": {
          "type": "object",
          "required": ["name", "channel_count", "channel_format"],
          "properties": {
            "name": {"type": "string", "minLength": 1},
            "channel_count": {"type": "integer", "minimum": 0},
            "nominal_srate": {"type": "number", "minimum": 0},
            "channel_format": {
              "enum": ["float32", "double64", "int8", "int16",
                       "int32", "int64", "string"]
            }
          }
        },
        "time_series": {
          "type": "array",
          "items": {"type": "array", "items": {"type": "number"}}
        },
        "text_series": {
          "type": "array",
          "items": {"type": "array", "items": {"type": "string"}}
        },
        "time_stamps": {
          "type": ["array", "null"],
          "items": {"type": "number"}
        }
      }
    }
  }
}`
