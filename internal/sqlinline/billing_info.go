package sqlinline

const QSelectBillingInfo = `--sql 6cfc64ce-d9fc-41a4-bd49-72c62bce0eed
select user_id::text, tax_number, name, street, zipcode, city, country,
       shipping_name, shipping_street, shipping_zipcode, shipping_city, shipping_country
from billing_info
where user_id = $1::uuid
limit 1;
`

const QUpsertBillingInfo = `--sql 1ea5ed57-a862-433b-b087-c7bf591891e4
insert into billing_info (user_id, tax_number, name, street, zipcode, city, country,
                          shipping_name, shipping_street, shipping_zipcode, shipping_city, shipping_country,
                          created_at, updated_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text,
        $8::text, $9::text, $10::text, $11::text, $12::text, now(), now())
on conflict (user_id) do update set
    tax_number = excluded.tax_number,
    name = excluded.name,
    street = excluded.street,
    zipcode = excluded.zipcode,
    city = excluded.city,
    country = excluded.country,
    shipping_name = excluded.shipping_name,
    shipping_street = excluded.shipping_street,
    shipping_zipcode = excluded.shipping_zipcode,
    shipping_city = excluded.shipping_city,
    shipping_country = excluded.shipping_country,
    updated_at = now();
`
