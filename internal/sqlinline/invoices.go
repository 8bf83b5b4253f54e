package sqlinline

const QInsertInvoice = `--sql aef5cc22-dd05-4392-bb6e-3636229f0664
insert into invoices (
    id, user_id, order_id, number, full_number, window_key, type, issued, selling_date, payment_date,
    item_description, quantity, unit_price_net, total_net, total, tax_total, tax, currency,
    buyer_name, buyer_street, buyer_zipcode, buyer_city, buyer_country, buyer_tax_number,
    shipping_name, shipping_street, shipping_zipcode, shipping_city, shipping_country, require_shipment,
    issuer_name, issuer_street, issuer_zipcode, issuer_city, issuer_country, issuer_tax_number,
    created_at
)
values (
    $1::uuid, $2::uuid, $3::uuid, $4::bigint, $5::text, $6::text, $7::text, $8::date, $9::date, $10::date,
    $11::text, $12::int, $13::numeric, $14::numeric, $15::numeric, $16::numeric, $17::numeric, $18::text,
    $19::text, $20::text, $21::text, $22::text, $23::text, $24::text,
    $25::text, $26::text, $27::text, $28::text, $29::text, $30::boolean,
    $31::text, $32::text, $33::text, $34::text, $35::text, $36::text,
    $37::timestamptz
);
`

const QSelectInvoiceByID = `--sql 2c510a81-5ca9-4c94-9faf-680abc39e503
select id::text, user_id::text, order_id::text, number, full_number, window_key, type, issued, selling_date, payment_date,
       item_description, quantity, unit_price_net::text, total_net::text, total::text, tax_total::text, tax::text, currency,
       buyer_name, buyer_street, buyer_zipcode, buyer_city, buyer_country, buyer_tax_number,
       shipping_name, shipping_street, shipping_zipcode, shipping_city, shipping_country, require_shipment,
       issuer_name, issuer_street, issuer_zipcode, issuer_city, issuer_country, issuer_tax_number,
       created_at
from invoices
where id = $1::uuid
limit 1;
`

const QSelectInvoicesByUser = `--sql cc194848-c2d1-42e4-8313-cc05a482e712
select id::text, user_id::text, order_id::text, number, full_number, window_key, type, issued, selling_date, payment_date,
       item_description, quantity, unit_price_net::text, total_net::text, total::text, tax_total::text, tax::text, currency,
       buyer_name, buyer_street, buyer_zipcode, buyer_city, buyer_country, buyer_tax_number,
       shipping_name, shipping_street, shipping_zipcode, shipping_city, shipping_country, require_shipment,
       issuer_name, issuer_street, issuer_zipcode, issuer_city, issuer_country, issuer_tax_number,
       created_at
from invoices
where user_id = $1::uuid
order by issued desc, created_at desc
limit $2::int;
`

const QSelectInvoicesIssuedBetween = `--sql 87143f2c-2cf5-40f5-bf51-3fd102cbbe06
select id::text, user_id::text, order_id::text, number, full_number, window_key, type, issued, selling_date, payment_date,
       item_description, quantity, unit_price_net::text, total_net::text, total::text, tax_total::text, tax::text, currency,
       buyer_name, buyer_street, buyer_zipcode, buyer_city, buyer_country, buyer_tax_number,
       shipping_name, shipping_street, shipping_zipcode, shipping_city, shipping_country, require_shipment,
       issuer_name, issuer_street, issuer_zipcode, issuer_city, issuer_country, issuer_tax_number,
       created_at
from invoices
where issued between $1::date and $2::date
order by issued asc, type asc, number asc;
`

const QNextInvoiceNumber = `--sql 1c76f615-bca8-4f30-9d31-ec3f6692b04b
insert into invoice_counters (invoice_type, window_key, last_value, updated_at)
values ($1::text, $2::text, 1, now())
on conflict (invoice_type, window_key) do update set
    last_value = invoice_counters.last_value + 1,
    updated_at = now()
returning last_value;
`
