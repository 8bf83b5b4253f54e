package sqlinline

const QSelectUserContact = `--sql 29f9c77a-5d31-4659-ad72-1f2a188993d9
select id::text, email, coalesce(name, ''), coalesce(locale_pref, '')
from users
where id = $1::uuid
limit 1;
`
