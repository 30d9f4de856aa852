/*
Package config loads StatStore configuration.

Sources, later ones win:

 1. Built-in defaults (Default)
 2. A YAML file
 3. .env files, loaded into the process environment
 4. STATSTORE_* environment variables

Example file:

	storage:
	  url: mongodb://127.0.0.1:27518
	  database: thermostat
	  serverSelectionTimeout: 5s
	ssl:
	  enabled: true
	  disableHostnameVerification: false
	  caFile: /etc/thermostat/ca.pem
	logging:
	  level: DEBUG
	  format: JSON
	statements:
	  cacheSize: 256

Credentials are never part of the file. EnvCredentials reads
STATSTORE_USERNAME and STATSTORE_PASSWORD when a connection is made.
*/
package config
