package sqlinline

const QSelectPlans = `--sql 3ec5dd32-4ecb-4208-a45c-7e3a098be4d0
select id, name, description, available, visible, is_default, position
from plans
where ($1::boolean = false or visible = true)
order by position asc, id asc;
`

const QSelectPlanByID = `--sql 229b3fa2-0100-4aa2-b6d1-388294751c73
select id, name, description, available, visible, is_default, position
from plans
where id = $1::bigint
limit 1;
`

const QSelectDefaultPlan = `--sql 1afe5934-d0b2-44a0-843f-cabb464ec642
select id, name, description, available, visible, is_default, position
from plans
where is_default = true
order by position asc, id asc
limit 1;
`

const QSelectPricingsByPlans = `--sql 2d3b9c5f-fff8-40a8-8666-e08e674f1d94
select id, plan_id, name, period, price::text
from plan_pricings
where plan_id = any($1::bigint[])
order by plan_id asc, period asc;
`
