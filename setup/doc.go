/*
Package setup creates the first storage user for a data directory.

CredentialsSetup runs once: it starts storage through a Lifecycle, adds the
user, writes a stamp file into the data directory and stops storage. Later
runs see the stamp file and report StatusAlreadyConfigured. Every run
returns its own Result, so concurrent runs never share failure state.

	res := setup.New(cfg.Setup.DataDir, svc, setup.WithLogger(log)).Run(ctx, creds)
	if !res.OK() {
	    return res.Err
	}
*/
package setup
