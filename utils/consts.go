package utils

// environment variables
const ENV = "ENV"
const PORT = "PORT"
const DB_PATH = "DB_PATH"
const JWT_SECRET_KEY = "JWT_SECRET_KEY"
const HF_API_KEY = "HF_API_KEY"
const LEGACY_HF_API_KEY = "HUGGINGFACE_API_KEY"
const ACCESS_TOKEN_DURATION_ENV = "ACCESS_TOKEN_DURATION"
const MAX_NUM_LOGIN_ATTEMPTS_ENV = "MAX_LOGIN_ATTEMPTS"

// error messages
const GENERIC_SIGNUP_ERROR = "We had some trouble signing you up. Please try again!"
const EMAIL_TAKEN_SIGNUP_ERROR = "Someone might have signed up with that email before. Please try logging in!"
const GENERIC_LOGIN_ERROR = "We had some trouble logging you in. Please try again!"
const INVALID_CREDENTIALS_ERROR = "Invalid credentials."
const GENERIC_VERIFY_ERROR = "That verification link is invalid or was already used."
const GENERIC_PASSWORD_RESET_REQUEST_ERROR = "We had some trouble getting you a reset code. Please try again!"
const GENERIC_PASSWORD_RESET_ERROR = "We had some trouble resetting your password. Please try again!"
const PASSWORD_RESET_REQUESTED = "If that email has an account, a reset code is on its way."
const GENERIC_RATE_LIMIT_ERROR = "You're doing that a lot. Please slow down and try again in a moment."
const GENERIC_SERVER_ERROR = "Something went wrong on our side. Please try again!"
const RECORD_NOT_FOUND_ERROR = "We couldn't find that item."
const MISSING_REQUEST_DATA = "Missing request data."
const UNAUTHORIZED_ERROR = "Please sign in again."
const JWT_TOKEN_PARSING_ERROR = "Your session token could not be read."
const JWT_TOKEN_EXPIRED_ERROR = "Your session has expired."
const VAULT_LOCKED_ERROR = "Unlock your vault before saving encrypted notes."
const VAULT_DECRYPT_ERROR = "This note could not be decrypted with the current vault password."
const VAULT_PASSWORD_ERROR = "That vault password does not match the one your notes were saved with."

// ban and token durations, in minutes
const MAX_NUM_LOGIN_ATTEMPTS = 5
const LOGIN_BAN_DURATION = 10
const ACCESS_TOKEN_DURATION = 60 * 12
const CODE_DURATION = 20
