package sqlinline

const QInsertOrder = `--sql 1b231337-8c1a-42df-aace-a19503315e3a
insert into orders (id, user_id, plan_id, pricing_id, amount, tax, currency, status, created_at)
values ($1::uuid, $2::uuid, $3::bigint, $4::bigint, $5::numeric, $6::numeric, $7::text, $8::text, $9::timestamptz);
`

const QSelectOrderByID = `--sql 5b41aa20-f2e6-49c8-adcd-65e76f12e89a
select id::text, user_id::text, plan_id, pricing_id, amount::text, tax::text, currency, status, created_at, completed_at
from orders
where id = $1::uuid
limit 1;
`

const QUpdateOrderStatus = `--sql 63387b3a-f284-42f1-853a-6e78e0919c4f
update orders
set status = $2::text,
    completed_at = $3::timestamptz
where id = $1::uuid
  and status = $4::text;
`

const QSelectOrdersByUser = `--sql 3713a3f7-27d6-4782-bddc-f22817fd230e
select id::text, user_id::text, plan_id, pricing_id, amount::text, tax::text, currency, status, created_at, completed_at
from orders
where user_id = $1::uuid
order by created_at desc
limit $2::int;
`
