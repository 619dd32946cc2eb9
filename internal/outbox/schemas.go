package outbox

const vitalsRecordedSchema = `{
  "type": "object",
  "title": "VitalsRecorded",
  "properties": {
    "record_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "recorded_at": {"type": "string", "format": "date-time"},
    "heart_rate": {"type": "integer"},
    "bp_systolic": {"type": "number"},
    "bp_diastolic": {"type": "number"},
    "oxygen_saturation": {"type": "number"},
    "blood_glucose": {"type": "number"},
    "body_temperature": {"type": "number"}
  },
  "required": ["record_id", "tenant_id", "user_id", "recorded_at"],
  "additionalProperties": false
}`

const alertRaisedSchema = `{
  "type": "object",
  "title": "AlertRaised",
  "properties": {
    "alert_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "reason": {"type": "string"},
    "urgency": {"type": "string"},
    "raised_at": {"type": "string", "format": "date-time"}
  },
  "required": ["alert_id", "tenant_id", "user_id", "reason", "urgency", "raised_at"],
  "additionalProperties": false
}`
