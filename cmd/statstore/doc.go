/*
Command statstore administers the storage behind a StatStore deployment.

	statstore version [-o text|yaml]
	statstore ping
	statstore setup-user [-user name] [-data-dir dir]
	statstore schema [-o text|yaml]

Global flags come before the command: -config names a YAML file, -env a
.env file (default .env), -timeout bounds the whole command. Settings are
overridden by STATSTORE_* environment variables; credentials come from
STATSTORE_USERNAME and STATSTORE_PASSWORD.

Exit status is 0 on success, 1 when the command fails and 2 on usage errors.
*/
package main
