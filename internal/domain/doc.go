// Package domain models Argo float profile data as stored in NetCDF classic files.
//
// # Data Source
//
// Profile files are published by the Argo Global Data Assembly Centres under
// ftp://ftp.ifremer.fr/ifremer/argo/dac/<dac>/<platform>/profiles/. A file holds
// N_PROF vertical profiles, each sampled at up to N_LEVELS levels, for the
// N_PARAM physical parameters named in STATION_PARAMETERS.
//
// # NetCDF Conventions
//
// Text is stored as fixed-width, null or space padded CHAR arrays. The trailing
// dimension of a text variable carries its width and is named after it:
//
//	STRING1 ... STRING256   fixed-width labels (e.g. PLATFORM_NUMBER[N_PROF, STRING8])
//	DATE_TIME               YYYYMMDDHHMISS timestamps (14 characters)
//
// A CHAR variable whose trailing dimension is not one of those names (for example
// JULD_QC[N_PROF] or TEMP_QC[N_PROF, N_LEVELS]) is an array of single-character
// codes, not a string.
//
// Per-level parameter arrays come in up to four parallel variables:
//
//	<PARAM>               real-time values
//	<PARAM>_ADJUSTED      delayed-mode or adjusted values
//	<PARAM>_QC            per-level QC flags
//	<PARAM>_ADJUSTED_QC   per-level QC flags for the adjusted values
//
// # Fill Values
//
//	99999      _FillValue for parameters and integer profile fields
//	999999.0   _FillValue for JULD and JULD_LOCATION
//	""         unset QC flag or text field
//
// Positions whose latitude or longitude is a fill value (99999, -99.999, -999,
// -999.999) or not a number are replaced by the point (lat -90, lon 0).
//
// # ID Generation
//
// Profile ids are "<file stem>_<profile index>", so reprocessing a file upserts
// the same documents. Metadata ids are "<platform number>_m<sequence>", assigned
// in profile order within one run.
package domain
