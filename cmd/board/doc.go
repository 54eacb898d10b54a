// Command board is the pricing board CLI. Board operations go through the
// daemon's HTTP API using the session token from --token or BOARD_TOKEN;
// configuration and notification checks run locally.
package main
