package sqlinline

const QSelectProfilePhoto = `--sql a6d03c91-47e8-4f25-9b60-c3f8a2d1e547
select coalesce(profile_photo_ref, '')
from users
where id = $1::uuid;
`
