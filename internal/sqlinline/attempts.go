package sqlinline

// QInsertAttemptQuotaGuarded creates a GENERATING attempt only while the
// owner's non-failed count is below the ceiling. Check and insert happen in
// one statement so concurrent generate calls cannot both slip past the quota.
const QInsertAttemptQuotaGuarded = `--sql 7f3c2a19-54be-4c8e-9d42-a1c06e3b8f27
with input as (
  select
    $1::uuid as owner_id,
    $2::text as original_ref,
    $3::text as style,
    $4::int  as ceiling
),
guarded as (
  insert into portrait_attempts(id, owner_id, original_ref, style, status)
  select gen_random_uuid(), owner_id, original_ref, style, 'GENERATING'
  from input
  where (
    select count(*)
    from portrait_attempts p
    where p.owner_id = (select owner_id from input)
      and p.status <> 'FAILED'
  ) < (select ceiling from input)
  returning id, created_at
)
select id, created_at from guarded;
`

const QMarkAttemptCompleted = `--sql 2b8e11d4-6f0a-47c3-8e5b-93d4c7a2e610
update portrait_attempts
set status = 'COMPLETED',
    generated_ref = $2::text,
    generation_duration_ms = $3::bigint,
    updated_at = now()
where id = $1::uuid and status = 'GENERATING';
`

const QMarkAttemptFailed = `--sql c94d7e02-3a61-4b8f-b2c5-17e8f0a6d943
update portrait_attempts
set status = 'FAILED',
    error_reason = $2::text,
    updated_at = now()
where id = $1::uuid and status = 'GENERATING';
`

const QSelectAttempt = `--sql 5a1f9c38-e27d-4906-a3b8-6c50d2e47f19
select id, owner_id, original_ref, coalesce(generated_ref, ''), style, status,
       coalesce(error_reason, ''), coalesce(generation_duration_ms, 0),
       created_at, updated_at
from portrait_attempts
where id = $2::uuid and owner_id = $1::uuid;
`

const QListAttempts = `--sql 8d62b0f5-1c49-4e7a-95d3-f0a8c1b6e254
select id, style, status, coalesce(generated_ref, ''),
       coalesce(generation_duration_ms, 0), created_at
from portrait_attempts
where owner_id = $1::uuid
order by created_at desc
limit $2::int;
`

const QCountNonFailedAttempts = `--sql e1709a46-b82c-4d35-a6f1-24c8d9e0b573
select count(*)
from portrait_attempts
where owner_id = $1::uuid and status <> 'FAILED';
`

// QAcceptAttempt demotes the previous holder, promotes the target and
// publishes the generated image as the owner's profile photo in a single
// atomic statement. Returns no row when the target is missing, not owned by
// the caller, or not in COMPLETED/ACCEPTED.
const QAcceptAttempt = `--sql 4c85d1e7-92f0-4ab6-8c3d-57b1e9a0f628
with target as (
  select id, generated_ref
  from portrait_attempts
  where id = $2::uuid
    and owner_id = $1::uuid
    and status in ('COMPLETED', 'ACCEPTED')
),
demoted as (
  update portrait_attempts
  set status = 'COMPLETED', updated_at = now()
  where owner_id = $1::uuid
    and status = 'ACCEPTED'
    and id <> $2::uuid
    and exists (select 1 from target)
),
published as (
  update users
  set profile_photo_ref = (select generated_ref from target),
      updated_at = now()
  where id = $1::uuid
    and exists (select 1 from target)
),
promoted as (
  update portrait_attempts
  set status = 'ACCEPTED', updated_at = now()
  where id = (select id from target)
  returning id, owner_id, original_ref, coalesce(generated_ref, ''), style,
            status, coalesce(error_reason, ''),
            coalesce(generation_duration_ms, 0), created_at, updated_at
)
select * from promoted;
`

// QFailStaleAttempts reconciles orphaned GENERATING rows left behind by a
// crash between record creation and outcome persistence.
const QFailStaleAttempts = `--sql 93f47b2a-d05e-4c61-b8a9-e62d10c5f784
update portrait_attempts
set status = 'FAILED',
    error_reason = $2::text,
    updated_at = now()
where status = 'GENERATING' and created_at < $1::timestamptz;
`
