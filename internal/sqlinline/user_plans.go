package sqlinline

const QSelectUserPlan = `--sql 4b23a72d-6dbe-4005-888e-54c45740de1f
select user_id::text, plan_id, expire, active, updated_at
from user_plans
where user_id = $1::uuid
limit 1;
`

const QUpsertUserPlan = `--sql a6f6dc4e-5741-4915-bee3-f75bcf0993b8
insert into user_plans (user_id, plan_id, expire, active, created_at, updated_at)
values ($1::uuid, $2::bigint, $3::date, $4::boolean, now(), now())
on conflict (user_id) do update set
    plan_id = excluded.plan_id,
    expire = excluded.expire,
    active = excluded.active,
    updated_at = now()
returning updated_at;
`

const QSelectExpiredUserPlans = `--sql bd656596-d2e4-4c72-9a57-faceef9c0796
select user_id::text, plan_id, expire, active, updated_at
from user_plans
where active = true
  and expire is not null
  and expire < $1::date
order by expire asc;
`

const QSelectUserPlansExpiringOn = `--sql 3bc9d3e7-94e1-4581-ba73-02e70404f3d3
select user_id::text, plan_id, expire, active, updated_at
from user_plans
where active = true
  and expire = $1::date
order by user_id asc;
`

const QDeactivateExpiredUserPlan = `--sql 0d6f1c9e-4a57-4f0b-b3d2-7c8e91a26f45
update user_plans
set active = false,
    updated_at = now()
where user_id = $1::uuid
  and active = true
  and expire is not null
  and expire < $2::date;
`
