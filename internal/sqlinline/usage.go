package sqlinline

const QInsertUsageEvent = `--sql f2b81d60-9c54-4a37-8e12-d05c6f4a9b38
insert into usage_events(id, user_id, attempt_id, event_type, success, latency_ms, created_at)
values (gen_random_uuid(), $1::uuid, $2::uuid, $3::text, $4::boolean, $5::int, now());
`
