package record

// Tag names of the known record variants. A record matches a
// variant when it is an object with that single key.
const (
	TagSDK       = "antithesis_sdk"
	TagSetup     = "antithesis_setup"
	TagAssert    = "antithesis_assert"
	TagSendEvent = "send_event"
)

const schemaBaseURL = "https://oracle.schemas.local/record/"

const sdkSchema = `{
  "type": "object",
  "required": ["language", "version"],
  "properties": {
    "language": {"type": "string"},
    "version": {"type": "string"}
  }
}`

const setupSchema = `{
  "type": "object",
  "required": ["status", "details"],
  "properties": {
    "status": {"type": "string"},
    "details": {}
  }
}`

const assertSchema = `{
  "type": "object",
  "required": [
    "assert_type", "condition", "display_type", "hit",
    "must_hit", "id", "message", "location", "details"
  ],
  "properties": {
    "assert_type": {"enum": ["always", "sometimes", "reachability"]},
    "condition": {"type": "boolean"},
    "display_type": {"type": "string"},
    "hit": {"type": "boolean"},
    "must_hit": {"type": "boolean"},
    "id": {"type": "string"},
    "message": {"type": "string"},
    "location": {"$ref": "#/$defs/location"},
    "details": {}
  },
  "$defs": {
    "int32": {
      "type": "integer",
      "minimum": -2147483648,
      "maximum": 2147483647
    },
    "location": {
      "type": "object",
      "required": ["begin_column", "begin_line", "class", "file", "function"],
      "properties": {
        "begin_column": {"$ref": "#/$defs/int32"},
        "begin_line": {"$ref": "#/$defs/int32"},
        "class": {"type": "string"},
        "file": {"type": "string"},
        "function": {"type": "string"}
      }
    }
  }
}`

const sendEventSchema = `{
  "type": "object",
  "required": ["event_name", "details"],
  "properties": {
    "event_name": {"type": "string"},
    "details": {}
  }
}`
